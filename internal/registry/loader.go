package registry

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Separator is the field separator of the registry export.
const Separator = ';'

// Options controls how raw registry bytes are decoded and mapped.
type Options struct {
	Columns   ColumnNames
	Encodings []string
}

// HashBytes returns the hex SHA-256 of raw registry content. It is the cache
// key for parsed registries.
func HashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ReadFile reads a registry file from disk without decoding it.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry: %w", err)
	}
	return data, nil
}

// Load decodes and parses raw registry bytes. The returned Decoded carries
// any DecodeFallbackWarning; it is never turned into an error.
func Load(data []byte, opts Options) (*Registry, Decoded, error) {
	dec, err := Decode(data, opts.Encodings)
	if err != nil {
		return nil, Decoded{}, err
	}

	reg, err := Parse(strings.NewReader(dec.Text), opts.Columns)
	if err != nil {
		return nil, dec, err
	}
	reg.Hash = HashBytes(data)
	reg.Encoding = dec.Encoding
	reg.Fallback = dec.Fallback()
	return reg, dec, nil
}

// Parse reads decoded registry text. The first row is the header; rows
// shorter than the header have their missing cells treated as empty.
func Parse(r io.Reader, names ColumnNames) (*Registry, error) {
	names = names.WithDefaults()

	cr := csv.NewReader(r)
	cr.Comma = Separator
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &SchemaError{Missing: requiredNames(names)}
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	idx, err := resolveHeader(header, names)
	if err != nil {
		return nil, err
	}

	reg := &Registry{
		Columns: Columns{
			NonStrict:   idx.nonStrict >= 0,
			PortalScore: idx.portalScore >= 0,
		},
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading registry row: %w", err)
		}
		line, _ := cr.FieldPos(0)

		cell := func(i int) string {
			if i < 0 || i >= len(row) {
				return ""
			}
			return row[i]
		}

		reg.Records = append(reg.Records, Record{
			Title:        strings.TrimSpace(cell(idx.title)),
			Year:         ParseYear(cell(idx.year)),
			DivisionsRaw: cell(idx.divisions),
			HSEListTag:   strings.TrimSpace(cell(idx.hseList)),
			Review: ReviewClass{
				Strict:    ParseFlag(cell(idx.strict)),
				NonStrict: ParseFlag(cell(idx.nonStrict)),
			},
			FractionalScore: ParseNumber(cell(idx.score)),
			PortalScore:     ParseNumber(cell(idx.portalScore)),
			PortalType:      strings.TrimSpace(cell(idx.portalType)),
			ScopusType:      strings.TrimSpace(cell(idx.scopusType)),
			Line:            line,
		})
	}

	return reg, nil
}

func requiredNames(n ColumnNames) []string {
	return []string{n.Title, n.Year, n.Divisions, n.HSEList, n.Strict, n.Score, n.PortalType, n.ScopusType}
}
