package notion

import "strings"

// Property type tags understood by the extractor. Other Notion property types
// decode fine but are never read.
const (
	PropertyTitle       = "title"
	PropertyRichText    = "rich_text"
	PropertyCheckbox    = "checkbox"
	PropertySelect      = "select"
	PropertyMultiSelect = "multi_select"
	PropertyURL         = "url"
	PropertyDate        = "date"
	PropertyPeople      = "people"
	PropertyFiles       = "files"
)

// Page is one row of a Notion database.
type Page struct {
	Object         string              `json:"object"`
	ID             string              `json:"id"`
	CreatedTime    string              `json:"created_time"`
	LastEditedTime string              `json:"last_edited_time"`
	Archived       bool                `json:"archived"`
	URL            string              `json:"url"`
	Properties     map[string]Property `json:"properties"`
}

// Property is a typed value on a page. Only the field matching Type is populated.
type Property struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Title       []RichText     `json:"title,omitempty"`
	RichText    []RichText     `json:"rich_text,omitempty"`
	Checkbox    bool           `json:"checkbox,omitempty"`
	Select      *SelectOption  `json:"select,omitempty"`
	MultiSelect []SelectOption `json:"multi_select,omitempty"`
	URL         *string        `json:"url,omitempty"`
	Date        *DateValue     `json:"date,omitempty"`
	People      []User         `json:"people,omitempty"`
	Files       []FileRef      `json:"files,omitempty"`
}

// RichText is one styled run of text.
type RichText struct {
	Type        string      `json:"type"`
	PlainText   string      `json:"plain_text"`
	Href        string      `json:"href,omitempty"`
	Annotations Annotations `json:"annotations"`
	Equation    *Expression `json:"equation,omitempty"`
}

// Annotations holds the formatting flags of a rich text run.
type Annotations struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Strikethrough bool   `json:"strikethrough"`
	Underline     bool   `json:"underline"`
	Code          bool   `json:"code"`
	Color         string `json:"color"`
}

type SelectOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type DateValue struct {
	Start    string `json:"start"`
	End      string `json:"end,omitempty"`
	TimeZone string `json:"time_zone,omitempty"`
}

type User struct {
	Object string `json:"object"`
	ID     string `json:"id"`
	Name   string `json:"name"`
}

// FileRef is either an externally hosted file or a Notion hosted one.
type FileRef struct {
	Type     string     `json:"type"`
	Name     string     `json:"name,omitempty"`
	File     *HostedURL `json:"file,omitempty"`
	External *HostedURL `json:"external,omitempty"`
	Caption  []RichText `json:"caption,omitempty"`
}

type HostedURL struct {
	URL        string `json:"url"`
	ExpiryTime string `json:"expiry_time,omitempty"`
}

// Location returns the file URL regardless of hosting.
func (f FileRef) Location() string {
	switch f.Type {
	case "external":
		if f.External != nil {
			return f.External.URL
		}
	case "file":
		if f.File != nil {
			return f.File.URL
		}
	}
	return ""
}

// QueryResult is one page of a database query.
type QueryResult struct {
	Object     string  `json:"object"`
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// Cursor returns the continuation cursor or "" when the query is exhausted.
func (r *QueryResult) Cursor() string {
	if r == nil || !r.HasMore || r.NextCursor == nil {
		return ""
	}
	return *r.NextCursor
}

// Block is one node of a page's content tree. Children is filled by the client.
type Block struct {
	Object      string `json:"object"`
	ID          string `json:"id"`
	Type        string `json:"type"`
	HasChildren bool   `json:"has_children"`

	Paragraph        *TextBlock  `json:"paragraph,omitempty"`
	Heading1         *TextBlock  `json:"heading_1,omitempty"`
	Heading2         *TextBlock  `json:"heading_2,omitempty"`
	Heading3         *TextBlock  `json:"heading_3,omitempty"`
	BulletedListItem *TextBlock  `json:"bulleted_list_item,omitempty"`
	NumberedListItem *TextBlock  `json:"numbered_list_item,omitempty"`
	ToDo             *TextBlock  `json:"to_do,omitempty"`
	Toggle           *TextBlock  `json:"toggle,omitempty"`
	Quote            *TextBlock  `json:"quote,omitempty"`
	Callout          *TextBlock  `json:"callout,omitempty"`
	Code             *TextBlock  `json:"code,omitempty"`
	Image            *FileRef    `json:"image,omitempty"`
	Video            *FileRef    `json:"video,omitempty"`
	File             *FileRef    `json:"file,omitempty"`
	PDF              *FileRef    `json:"pdf,omitempty"`
	Bookmark         *LinkBlock  `json:"bookmark,omitempty"`
	Embed            *LinkBlock  `json:"embed,omitempty"`
	LinkPreview      *LinkBlock  `json:"link_preview,omitempty"`
	Equation         *Expression `json:"equation,omitempty"`
	ChildPage        *ChildPage  `json:"child_page,omitempty"`
	Table            *Table      `json:"table,omitempty"`
	TableRow         *TableRow   `json:"table_row,omitempty"`

	Children []Block `json:"children,omitempty"`
}

// TextBlock covers every block type whose payload is rich text.
type TextBlock struct {
	RichText []RichText `json:"rich_text"`
	Color    string     `json:"color,omitempty"`
	Checked  bool       `json:"checked,omitempty"`
	Language string     `json:"language,omitempty"`
	Icon     *Icon      `json:"icon,omitempty"`
	Caption  []RichText `json:"caption,omitempty"`
}

type Icon struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji,omitempty"`
}

type LinkBlock struct {
	URL     string     `json:"url"`
	Caption []RichText `json:"caption,omitempty"`
}

type Expression struct {
	Expression string `json:"expression"`
}

type ChildPage struct {
	Title string `json:"title"`
}

type Table struct {
	TableWidth      int  `json:"table_width"`
	HasColumnHeader bool `json:"has_column_header"`
	HasRowHeader    bool `json:"has_row_header"`
}

type TableRow struct {
	Cells [][]RichText `json:"cells"`
}

// PlainText concatenates the plain text of items in order.
func PlainText(items []RichText) string {
	if len(items) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString(item.PlainText)
	}
	return sb.String()
}
