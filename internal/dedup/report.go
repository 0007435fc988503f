package dedup

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

// PreviewBytes is how much of a file PrintDuplicates shows
const PreviewBytes = 100

// PrintDuplicates writes the numbered duplicate groups to w, or the sentinel
// message when there are none. With preview set, the head of each group's
// first member is shown after the member list.
func (e *Engine) PrintDuplicates(w io.Writer, preview bool) error {
	return WriteGroups(w, e.result, preview)
}

// WriteGroups renders a Result in the numbered listing format
func WriteGroups(w io.Writer, r *Result, preview bool) error {
	bw := bufio.NewWriter(w)

	if !r.HasGroups() {
		fmt.Fprintln(bw, r.Message())
		return bw.Flush()
	}

	for i, g := range r.Groups {
		fmt.Fprintf(bw, "%d. hash - (%s)\n", i+1, g.Digest)
		for j, path := range g.Files {
			fmt.Fprintf(bw, "\t%d. %s\n", j+1, path)
		}
		if preview && len(g.Files) > 0 {
			writePreview(bw, i+1, g)
		}
	}

	return bw.Flush()
}

func writePreview(w io.Writer, ordinal int, g Group) {
	head, err := readHead(g.Files[0], PreviewBytes)
	if err != nil {
		fmt.Fprintf(w, "\tpreview unavailable: %v\n", err)
		return
	}

	if text, ok := decodeText(head); ok {
		fmt.Fprintf(w, "```preview(utf-8) of Group(%d) hash(%s)\n%s\n```preview end\n", ordinal, g.Digest, text)
		return
	}
	fmt.Fprintf(w, "```preview(bytes) of Group(%d) hash(%s)\n%q\n```preview end\n", ordinal, g.Digest, head)
}

func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:read], nil
}

// decodeText reports whether head is UTF-8 text. A rune cut off by the
// preview limit does not count against it.
func decodeText(head []byte) (string, bool) {
	if utf8.Valid(head) {
		return string(head), true
	}

	// trim at most one partial rune from the end
	for cut := 1; cut < utf8.UTFMax && cut <= len(head); cut++ {
		body := head[:len(head)-cut]
		if utf8.Valid(body) && !utf8.FullRune(head[len(head)-cut:]) {
			return string(body), true
		}
	}
	return "", false
}
