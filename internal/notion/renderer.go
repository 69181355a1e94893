package notion

import (
	"fmt"
	"strings"
)

// Rendered is a page converted to markdown. Parent holds the page's own
// content; each child page becomes one entry of Children.
type Rendered struct {
	Parent   string
	Children []string
}

// Content joins the non-empty parent and child fragments with a blank line.
func (r Rendered) Content() string {
	parts := make([]string, 0, len(r.Children)+1)
	if r.Parent != "" {
		parts = append(parts, r.Parent)
	}
	for _, child := range r.Children {
		if child != "" {
			parts = append(parts, child)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Renderer converts Notion block trees to markdown.
type Renderer struct {
	indent string
}

// NewRenderer creates a Renderer that indents nested list items by two spaces.
func NewRenderer() *Renderer {
	return &Renderer{indent: "  "}
}

// Render converts a page's block tree.
func (r *Renderer) Render(blocks []Block) Rendered {
	var out Rendered
	var own []Block
	for _, b := range blocks {
		if b.Type == "child_page" {
			out.Children = append(out.Children, r.renderChildPage(b))
			continue
		}
		own = append(own, b)
	}
	out.Parent = r.renderBlocks(own, 0)
	return out
}

func (r *Renderer) renderChildPage(b Block) string {
	title := ""
	if b.ChildPage != nil {
		title = b.ChildPage.Title
	}
	nested := r.Render(b.Children)
	parts := []string{}
	if title != "" {
		parts = append(parts, "# "+title)
	}
	if content := nested.Content(); content != "" {
		parts = append(parts, content)
	}
	return strings.Join(parts, "\n\n")
}

// renderBlocks renders siblings. Consecutive list items are kept on adjacent
// lines; every other block is separated by a blank line.
func (r *Renderer) renderBlocks(blocks []Block, depth int) string {
	var sb strings.Builder
	number := 0
	prevList := false

	for _, b := range blocks {
		if b.Type == "numbered_list_item" {
			number++
		} else {
			number = 0
		}

		chunk := r.renderBlock(b, depth, number)
		if chunk == "" {
			continue
		}

		isList := isListItem(b.Type)
		if sb.Len() > 0 {
			if isList && prevList {
				sb.WriteString("\n")
			} else {
				sb.WriteString("\n\n")
			}
		}
		sb.WriteString(chunk)
		prevList = isList
	}

	return sb.String()
}

func isListItem(blockType string) bool {
	switch blockType {
	case "bulleted_list_item", "numbered_list_item", "to_do":
		return true
	}
	return false
}

func (r *Renderer) renderBlock(b Block, depth, number int) string {
	switch b.Type {
	case "paragraph":
		return r.withChildren(richText(textOf(b.Paragraph)), b, depth)
	case "heading_1":
		return "# " + richText(textOf(b.Heading1))
	case "heading_2":
		return "## " + richText(textOf(b.Heading2))
	case "heading_3":
		return "### " + richText(textOf(b.Heading3))
	case "bulleted_list_item":
		return r.listItem("- ", textOf(b.BulletedListItem), b, depth)
	case "numbered_list_item":
		return r.listItem(fmt.Sprintf("%d. ", number), textOf(b.NumberedListItem), b, depth)
	case "to_do":
		box := "- [ ] "
		if b.ToDo != nil && b.ToDo.Checked {
			box = "- [x] "
		}
		return r.listItem(box, textOf(b.ToDo), b, depth)
	case "toggle":
		summary := richText(textOf(b.Toggle))
		inner := r.renderBlocks(b.Children, 0)
		if inner == "" {
			return fmt.Sprintf("<details>\n<summary>%s</summary>\n</details>", summary)
		}
		return fmt.Sprintf("<details>\n<summary>%s</summary>\n\n%s\n\n</details>", summary, inner)
	case "quote":
		return blockquote(richText(textOf(b.Quote)), r.renderBlocks(b.Children, 0))
	case "callout":
		content := richText(textOf(b.Callout))
		if b.Callout != nil && b.Callout.Icon != nil && b.Callout.Icon.Emoji != "" {
			content = b.Callout.Icon.Emoji + " " + content
		}
		return blockquote(content, r.renderBlocks(b.Children, 0))
	case "code":
		lang := ""
		if b.Code != nil {
			lang = b.Code.Language
			if lang == "plain text" {
				lang = ""
			}
		}
		return "```" + lang + "\n" + PlainText(textOf(b.Code)) + "\n```"
	case "divider":
		return "---"
	case "equation":
		if b.Equation == nil {
			return ""
		}
		return "$$\n" + b.Equation.Expression + "\n$$"
	case "image":
		if b.Image == nil {
			return ""
		}
		return fmt.Sprintf("![%s](%s)", PlainText(b.Image.Caption), b.Image.Location())
	case "video", "file", "pdf":
		ref := fileBlock(b)
		if ref == nil {
			return ""
		}
		label := PlainText(ref.Caption)
		if label == "" {
			label = ref.Name
		}
		if label == "" {
			label = b.Type
		}
		return fmt.Sprintf("[%s](%s)", label, ref.Location())
	case "bookmark", "embed", "link_preview":
		link := linkBlock(b)
		if link == nil || link.URL == "" {
			return ""
		}
		label := PlainText(link.Caption)
		if label == "" {
			label = link.URL
		}
		return fmt.Sprintf("[%s](%s)", label, link.URL)
	case "table":
		return r.table(b)
	case "column_list", "column", "synced_block":
		return r.renderBlocks(b.Children, depth)
	case "child_page":
		return r.renderChildPage(b)
	default:
		return ""
	}
}

func (r *Renderer) listItem(marker string, items []RichText, b Block, depth int) string {
	line := strings.Repeat(r.indent, depth) + marker + richText(items)
	if len(b.Children) == 0 {
		return line
	}
	nested := r.renderBlocks(b.Children, depth+1)
	if nested == "" {
		return line
	}
	return line + "\n" + nested
}

func (r *Renderer) withChildren(content string, b Block, depth int) string {
	if len(b.Children) == 0 {
		return content
	}
	nested := r.renderBlocks(b.Children, depth)
	if content == "" {
		return nested
	}
	return content + "\n\n" + nested
}

func (r *Renderer) table(b Block) string {
	var rows []string
	for i, row := range b.Children {
		if row.TableRow == nil {
			continue
		}
		cells := make([]string, len(row.TableRow.Cells))
		for j, cell := range row.TableRow.Cells {
			cells[j] = strings.ReplaceAll(richText(cell), "|", `\|`)
		}
		rows = append(rows, "| "+strings.Join(cells, " | ")+" |")
		if i == 0 {
			sep := make([]string, len(cells))
			for j := range sep {
				sep[j] = "---"
			}
			rows = append(rows, "| "+strings.Join(sep, " | ")+" |")
		}
	}
	return strings.Join(rows, "\n")
}

func blockquote(content, nested string) string {
	body := content
	if nested != "" {
		if body != "" {
			body += "\n\n"
		}
		body += nested
	}
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = ">"
			continue
		}
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}

func textOf(tb *TextBlock) []RichText {
	if tb == nil {
		return nil
	}
	return tb.RichText
}

func fileBlock(b Block) *FileRef {
	switch b.Type {
	case "video":
		return b.Video
	case "file":
		return b.File
	case "pdf":
		return b.PDF
	}
	return nil
}

func linkBlock(b Block) *LinkBlock {
	switch b.Type {
	case "bookmark":
		return b.Bookmark
	case "embed":
		return b.Embed
	case "link_preview":
		return b.LinkPreview
	}
	return nil
}

// richText renders styled runs as inline markdown.
func richText(items []RichText) string {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString(inline(item))
	}
	return sb.String()
}

func inline(item RichText) string {
	content := item.PlainText
	if item.Type == "equation" && item.Equation != nil {
		return "$" + item.Equation.Expression + "$"
	}
	if content == "" {
		return ""
	}

	// Markdown emphasis must hug the text, so surrounding spaces move outside.
	lead := content[:len(content)-len(strings.TrimLeft(content, " "))]
	trail := content[len(strings.TrimRight(content, " ")):]
	core := strings.Trim(content, " ")
	if core == "" {
		return content
	}

	a := item.Annotations
	if a.Code {
		core = "`" + core + "`"
	}
	if a.Bold {
		core = "**" + core + "**"
	}
	if a.Italic {
		core = "_" + core + "_"
	}
	if a.Strikethrough {
		core = "~~" + core + "~~"
	}
	if item.Href != "" {
		core = "[" + core + "](" + item.Href + ")"
	}
	return lead + core + trail
}
