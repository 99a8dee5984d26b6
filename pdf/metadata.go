package pdf

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Metadata holds the entries of a document Info dictionary, decoded to text.
type Metadata map[string]string

// writerOwnedKeys are rewritten by the PDF writer on every save.
var writerOwnedKeys = map[string]bool{
	"Producer":     true,
	"CreationDate": true,
	"ModDate":      true,
}

// Keys returns the metadata keys in sorted order.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Preserved returns the subset of m that survives a save.
func (m Metadata) Preserved() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		if !writerOwnedKeys[k] {
			out[k] = v
		}
	}
	return out
}

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// ReadMetadata reads the Info dictionary of the PDF at path.
func ReadMetadata(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ctx, err := api.ReadValidateAndOptimize(f, newConfiguration())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return readInfo(ctx)
}

func readInfo(ctx *model.Context) (Metadata, error) {
	meta := Metadata{}
	if ctx.Info == nil {
		return meta, nil
	}

	d, err := ctx.DereferenceDict(*ctx.Info)
	if err != nil {
		return nil, fmt.Errorf("info dict: %w", err)
	}

	for key, obj := range d {
		o, err := ctx.Dereference(obj)
		if err != nil || o == nil {
			continue
		}
		switch v := o.(type) {
		case types.StringLiteral:
			s, err := types.StringLiteralToString(v)
			if err != nil {
				return nil, fmt.Errorf("info %s: %w", key, err)
			}
			meta[key] = s
		case types.HexLiteral:
			s, err := types.HexLiteralToString(v)
			if err != nil {
				return nil, fmt.Errorf("info %s: %w", key, err)
			}
			// Single-byte encoded values come back as raw bytes.
			if !utf8.ValidString(s) {
				s = types.CP1252ToUTF8(s)
			}
			meta[key] = s
		case types.Name:
			meta[key] = string(v)
		}
	}
	return meta, nil
}

// applyInfo writes meta into the Info dictionary of ctx, creating the dictionary if needed.
func applyInfo(ctx *model.Context, meta Metadata) error {
	if len(meta) == 0 {
		return nil
	}

	var d types.Dict
	if ctx.Info != nil {
		var err error
		if d, err = ctx.DereferenceDict(*ctx.Info); err != nil {
			return fmt.Errorf("info dict: %w", err)
		}
	}
	if d == nil {
		d = types.NewDict()
		ir, err := ctx.IndRefForNewObject(d)
		if err != nil {
			return fmt.Errorf("create info dict: %w", err)
		}
		ctx.Info = ir
	}

	for key, value := range meta {
		if key == "Trapped" {
			d[key] = types.Name(value)
			continue
		}
		sl, err := encodeTextString(value)
		if err != nil {
			return fmt.Errorf("info %s: %w", key, err)
		}
		d[key] = sl
	}
	return nil
}

// encodeTextString encodes s as a PDF text string literal: plain ASCII when possible,
// UTF-16BE with a byte order mark otherwise.
func encodeTextString(s string) (types.StringLiteral, error) {
	var (
		esc *string
		err error
	)
	if strings.IndexFunc(s, func(r rune) bool { return r > unicode.MaxASCII }) < 0 {
		esc, err = types.Escape(s)
	} else {
		esc, err = types.EscapedUTF16String(s)
	}
	if err != nil {
		return "", err
	}
	return types.StringLiteral(*esc), nil
}
