package record

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"
)

// Frontmatter delimiter line.
const frontmatterDelimiter = "---"

// descriptionHeading marks the body section that sets HasDescription.
const descriptionHeading = "## Description"

// noDescriptionPlaceholder is the explicit "empty" marker some generators
// write under the heading. Compared case-insensitively.
const noDescriptionPlaceholder = "no description provided."

// MaxFrontmatterLines bounds the delimiter search. If the closing
// delimiter is not found within this limit, parsing fails.
const MaxFrontmatterLines = 200

// nullToken in a frontmatter value means "unset".
const nullToken = "null"

// FileStat carries the scan-time file metadata for a parse.
type FileStat struct {
	Mtime time.Time
	Size  int64
}

// Parse parses one raw work-item file into a Record.
//
// The region between the first pair of --- lines is frontmatter, parsed
// as "key: value" lines. Surrounding double quotes are stripped from
// values, the bare token "null" maps to unset, depth and orderIndex are
// coerced to integers, and unrecognized keys are ignored. A missing or
// unclosed delimiter pair is a hard failure; the caller classifies the
// file as orphaned. A missing id is also a hard failure, since id is
// the join key for every relationship.
func Parse(raw []byte, filename string, stat FileStat) (*Record, error) {
	lines := strings.Split(string(raw), "\n")

	if len(lines) == 0 || strings.TrimRight(lines[0], "\r") != frontmatterDelimiter {
		return nil, ErrMissingDelimiters
	}

	rec := &Record{
		Path:        filename,
		Mtime:       stat.Mtime,
		Size:        stat.Size,
		ContentHash: hashContent(raw),
	}

	closed := false
	bodyStart := len(lines)

	for idx := 1; idx < len(lines); idx++ {
		if idx > MaxFrontmatterLines {
			return nil, ErrMissingDelimiters
		}

		line := strings.TrimRight(lines[idx], "\r")
		if line == frontmatterDelimiter {
			closed = true
			bodyStart = idx + 1

			break
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			// Malformed line inside the block; ignore like an unknown key
			// rather than orphaning the whole file.
			continue
		}

		parseErr := applyField(rec, strings.TrimSpace(key), cleanValue(value))
		if parseErr != nil {
			return nil, parseErr
		}
	}

	if !closed {
		return nil, ErrMissingDelimiters
	}

	if rec.ID == "" {
		return nil, ErrMissingID
	}

	rec.Body = strings.TrimLeft(strings.Join(lines[bodyStart:], "\n"), "\n")
	rec.HasDescription = hasDescription(rec.Body)

	return rec, nil
}

func applyField(rec *Record, key, value string) error {
	switch key {
	case "id":
		rec.ID = value
	case "title":
		rec.Title = value
	case "type":
		rec.Type = value
	case "status":
		rec.Status = value
	case "priority":
		rec.Priority = value
	case "functionalArea":
		rec.FunctionalArea = value
	case "parentId":
		rec.ParentID = value
	case "estimatedEffort":
		rec.EstimatedEffort = value
	case "depth":
		if value == "" {
			return nil
		}

		depth, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: depth %q", ErrInvalidField, value)
		}

		rec.Depth = depth
	case "orderIndex":
		if value == "" {
			return nil
		}

		order, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: orderIndex %q", ErrInvalidField, value)
		}

		rec.OrderIndex = order
	case "createdAt":
		if value == "" {
			return nil
		}

		created, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return fmt.Errorf("%w: createdAt %q", ErrInvalidField, value)
		}

		rec.CreatedAt = created
	case "updatedAt":
		if value == "" {
			return nil
		}

		updated, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return fmt.Errorf("%w: updatedAt %q", ErrInvalidField, value)
		}

		rec.UpdatedAt = updated
	}

	// Unrecognized keys are ignored for forward compatibility.
	return nil
}

// cleanValue trims whitespace, strips one pair of surrounding double
// quotes, and maps the null token to the empty string.
func cleanValue(value string) string {
	value = strings.TrimSpace(value)

	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		unquoted, err := strconv.Unquote(value)
		if err == nil {
			value = unquoted
		} else {
			value = value[1 : len(value)-1]
		}
	}

	if value == nullToken {
		return ""
	}

	return value
}

// hasDescription reports whether the body carries a real description:
// a "## Description" section with content beyond the explicit
// placeholder.
func hasDescription(body string) bool {
	idx := strings.Index(body, descriptionHeading)
	if idx == -1 {
		return false
	}

	section := body[idx+len(descriptionHeading):]

	// Section ends at the next heading, if any.
	if next := strings.Index(section, "\n#"); next != -1 {
		section = section[:next]
	}

	section = strings.TrimSpace(section)
	if section == "" {
		return false
	}

	return !strings.EqualFold(section, noDescriptionPlaceholder)
}

// hashContent is a fast non-cryptographic hash of the full raw file.
// It is a change-detection hint only, never correctness-critical.
func hashContent(raw []byte) uint64 {
	hasher := fnv.New64a()
	_, _ = hasher.Write(raw)

	return hasher.Sum64()
}

// Render serializes a Record back into file form. Render is the inverse
// of Parse: for any record produced by Parse, Parse(Render(rec))
// returns an equal record modulo scan-time fields.
func Render(rec *Record) string {
	var builder strings.Builder

	builder.WriteString(frontmatterDelimiter + "\n")
	builder.WriteString("id: " + rec.ID + "\n")
	builder.WriteString("title: " + strconv.Quote(rec.Title) + "\n")
	builder.WriteString("type: " + orNull(rec.Type) + "\n")
	builder.WriteString("status: " + orNull(rec.Status) + "\n")
	builder.WriteString("priority: " + orNull(rec.Priority) + "\n")
	builder.WriteString("functionalArea: " + orNull(rec.FunctionalArea) + "\n")
	builder.WriteString("parentId: " + orNull(rec.ParentID) + "\n")
	builder.WriteString("depth: " + strconv.Itoa(rec.Depth) + "\n")
	builder.WriteString("orderIndex: " + strconv.Itoa(rec.OrderIndex) + "\n")
	builder.WriteString("estimatedEffort: " + orNull(rec.EstimatedEffort) + "\n")
	builder.WriteString("createdAt: " + timeOrNull(rec.CreatedAt) + "\n")
	builder.WriteString("updatedAt: " + timeOrNull(rec.UpdatedAt) + "\n")
	builder.WriteString(frontmatterDelimiter + "\n")

	if rec.Body != "" {
		builder.WriteString("\n")
		builder.WriteString(rec.Body)

		if !strings.HasSuffix(rec.Body, "\n") {
			builder.WriteString("\n")
		}
	}

	return builder.String()
}

func orNull(value string) string {
	if value == "" {
		return nullToken
	}

	return value
}

func timeOrNull(t time.Time) string {
	if t.IsZero() {
		return nullToken
	}

	return t.UTC().Format(time.RFC3339)
}
