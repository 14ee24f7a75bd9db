package model

type Tag struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Article struct {
	ID               int    `json:"id"`
	OriginID         int    `json:"originId,omitempty"`
	Title            string `json:"title"`
	Link             string `json:"link"`
	Author           string `json:"author"`
	ShareUser        string `json:"shareUser"`
	Desc             string `json:"desc"`
	EnvelopePic      string `json:"envelopePic"`
	ProjectLink      string `json:"projectLink"`
	ChapterID        int    `json:"chapterId"`
	ChapterName      string `json:"chapterName"`
	SuperChapterID   int    `json:"superChapterId"`
	SuperChapterName string `json:"superChapterName"`
	NiceDate         string `json:"niceDate"`
	PublishTime      int64  `json:"publishTime"`
	Fresh            bool   `json:"fresh"`
	Collect          bool   `json:"collect"`
	Type             int    `json:"type"`
	Tags             []Tag  `json:"tags"`
}

// DisplayAuthor falls back to the sharing user and then to a placeholder.
func (a Article) DisplayAuthor() string {
	switch {
	case a.Author != "":
		return a.Author
	case a.ShareUser != "":
		return a.ShareUser
	default:
		return "unknown"
	}
}

// ArticlePage is one page of a paginated article listing.
// CurPage is 1-based as reported by the server.
type ArticlePage struct {
	CurPage   int       `json:"curPage"`
	Datas     []Article `json:"datas"`
	Offset    int       `json:"offset"`
	Over      bool      `json:"over"`
	PageCount int       `json:"pageCount"`
	Size      int       `json:"size"`
	Total     int       `json:"total"`
}

type Banner struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Desc      string `json:"desc"`
	ImagePath string `json:"imagePath"`
	URL       string `json:"url"`
	Order     int    `json:"order"`
	IsVisible int    `json:"isVisible"`
	Type      int    `json:"type"`
}

// Category is a node of the knowledge tree or the project tree.
type Category struct {
	ID              int        `json:"id"`
	Name            string     `json:"name"`
	Author          string     `json:"author"`
	Cover           string     `json:"cover"`
	Desc            string     `json:"desc"`
	CourseID        int        `json:"courseId"`
	ParentChapterID int        `json:"parentChapterId"`
	Order           int        `json:"order"`
	Type            int        `json:"type"`
	Visible         int        `json:"visible"`
	Children        []Category `json:"children"`
}

type Hotkey struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Link    string `json:"link"`
	Order   int    `json:"order"`
	Visible int    `json:"visible"`
}
