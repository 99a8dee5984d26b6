package pdf

import (
	"context"
	"path/filepath"
	"testing"

	"pdf_reducer/pdf/pdftest"
)

func TestMetadata_Preserved(t *testing.T) {
	meta := Metadata{"Title": "t", "Producer": "p", "ModDate": "D:2020", "CreationDate": "D:2019"}
	got := meta.Preserved()
	if _, ok := got["Producer"]; ok {
		t.Error("Producer should be dropped")
	}
	if _, ok := got["ModDate"]; ok {
		t.Error("ModDate should be dropped")
	}
	if _, ok := got["CreationDate"]; ok {
		t.Error("CreationDate should be dropped")
	}
	if len(got) != 1 || got["Title"] != "t" {
		t.Errorf("unexpected %v", got)
	}
}

func TestMetadata_Keys(t *testing.T) {
	keys := Metadata{"b": "", "a": "", "c": ""}.Keys()
	if len(keys) != 3 || keys[0] != "a" || keys[2] != "c" {
		t.Errorf("got %v", keys)
	}
}

func TestReadMetadata(t *testing.T) {
	path := pdftest.WriteTemp(t, "in.pdf", pdftest.Options{
		Pages: 1,
		Info:  map[string]string{"Title": "A (draft) report", "Subject": `back\slash`},
	})
	meta, err := ReadMetadata(path)
	if err != nil {
		t.Fatal(err)
	}
	if meta["Title"] != "A (draft) report" {
		t.Errorf("Title = %q", meta["Title"])
	}
	if meta["Subject"] != `back\slash` {
		t.Errorf("Subject = %q", meta["Subject"])
	}
}

func TestApplyInfo_TextEncodings(t *testing.T) {
	dir := t.TempDir()
	inputs := writeChunks(t, dir, "abcd1234", []int{1, 1})
	output := filepath.Join(dir, "out.pdf")
	meta := Metadata{
		"Title":   "Informe anual (versión final)",
		"Author":  "Zoë \\ Ünal",
		"Subject": "line one\nline two",
		"Trapped": "False",
		"Custom":  "kept",
	}

	m := &Merger{Dir: dir, Namespace: "abcd1234"}
	if _, err := m.Merge(context.Background(), inputs, output, meta); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	got, err := ReadMetadata(output)
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range meta {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}

func TestReadMetadata_HexStrings(t *testing.T) {
	dir := t.TempDir()
	src := pdftest.Write(t, filepath.Join(dir, "hex.pdf"), pdftest.Options{
		Pages:   2,
		HexInfo: map[string]string{"Title": "CafE\xe9", "Author": "plain"},
	})
	meta, err := ReadMetadata(src)
	if err != nil {
		t.Fatal(err)
	}
	if meta["Title"] != "CafEé" {
		t.Errorf("Title = %q, want %q", meta["Title"], "CafEé")
	}
	if meta["Author"] != "plain" {
		t.Errorf("Author = %q", meta["Author"])
	}

	output := filepath.Join(dir, "out.pdf")
	m := &Merger{Dir: dir, Namespace: "abcd1234"}
	if _, err := m.Merge(context.Background(), []string{src}, output, meta); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	got, err := ReadMetadata(output)
	if err != nil {
		t.Fatal(err)
	}
	if got["Title"] != "CafEé" {
		t.Errorf("output Title = %q, want %q", got["Title"], "CafEé")
	}
}

func TestApplyInfo_WriterOwnedKeysReplaced(t *testing.T) {
	dir := t.TempDir()
	inputs := writeChunks(t, dir, "abcd1234", []int{1})
	output := filepath.Join(dir, "out.pdf")
	meta := Metadata{"Title": "t", "Creator": "scanner", "CreationDate": "D:20190101120000Z"}

	m := &Merger{Dir: dir, Namespace: "abcd1234"}
	if _, err := m.Merge(context.Background(), inputs, output, meta); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	got, err := ReadMetadata(output)
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range meta.Preserved() {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
	if got["CreationDate"] == meta["CreationDate"] {
		t.Error("CreationDate is set by the writer and should not be carried over")
	}
}

func TestEncodeTextString_ASCII(t *testing.T) {
	got, err := encodeTextString(`a(b)c\d`)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `a\(b\)c\\d` {
		t.Errorf("got %q", got)
	}
}

func TestEncodeTextString_UTF16(t *testing.T) {
	got, err := encodeTextString("é")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "\xfe\xff\x00\xe9" {
		t.Errorf("got %q", got)
	}
}
