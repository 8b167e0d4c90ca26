package inbox

import "testing"

func TestDetectSourceType(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    SourceType
	}{
		{"https url", "Worth reading: https://go.dev/blog/generics", SourceURL},
		{"http url", "see http://example.com", SourceURL},
		{"url wins over code", "https://go.dev\n```go\nfunc main() {}\n```", SourceURL},
		{"code fence", "```python\nprint('hi')\n```", SourceCode},
		{"def keyword", "def parse(line):\n    return line", SourceCode},
		{"const keyword", "const maxRetries = 3", SourceCode},
		{"indented keyword", "  class Foo:\n    pass", SourceCode},
		{"plain thought", "An idea about walled gardens.", SourceThought},
		{"empty", "", SourceThought},
		{"keyword mid-sentence", "I would rather function without this", SourceThought},
	}
	for _, c := range cases {
		if got := DetectSourceType(c.content, "Title"); got != c.want {
			t.Errorf("%s: DetectSourceType = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestSuggestFolder(t *testing.T) {
	cases := []struct {
		name       string
		sourceType SourceType
		content    string
		want       string
	}{
		{"documentation url", SourceURL, "https://learn.microsoft.com/en-us/dotnet/", "05 - Resources/05d - Documents"},
		{"mdn url", SourceURL, "https://developer.mozilla.org/en-US/docs/Web", "05 - Resources/05d - Documents"},
		{"general url", SourceURL, "https://example.com/blog/post", "05 - Resources/05c - Clippings"},
		{"code", SourceCode, "```go\n```", "05 - Resources/05e - Examples"},
		{"thought", SourceThought, "an idea", "01 - Notes/01a - Atomic"},
	}
	for _, c := range cases {
		if got := SuggestFolder(c.sourceType, c.content); got != c.want {
			t.Errorf("%s: SuggestFolder = %q, want %q", c.name, got, c.want)
		}
	}
}

func TestFolderType(t *testing.T) {
	cases := []struct {
		folder string
		want   string
	}{
		{"01 - Notes/01a - Atomic", "note"},
		{"05 - Resources/05c - Clippings", "clipping"},
		{"05 - Resources/05e - Examples", "resource"},
		{"02 - MOCs", "moc"},
		{"04 - Areas", "area"},
		{"somewhere else", "note"},
	}
	for _, c := range cases {
		if got := FolderType(c.folder); got != c.want {
			t.Errorf("FolderType(%q) = %q, want %q", c.folder, got, c.want)
		}
	}
}
