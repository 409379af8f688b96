package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/medicare-ai/medassist/common/logger"
)

// Record is one row of the medicine dataset.
type Record struct {
	GenericName  string `json:"generic_name"`
	BrandName    string `json:"brand_name"`
	Salt         string `json:"salt"`
	Manufacturer string `json:"manufacturer"`
	Uses         string `json:"uses"`
	SideEffects  string `json:"side_effects"`
	Price        string `json:"price"`
}

// Text is the indexed representation of the row.
func (r Record) Text() string {
	return fmt.Sprintf("Generic Name: %s. Brand Name: %s. Composition (Salt): %s. Manufacturer: %s. Uses: %s. Side Effects: %s. Price: %s.",
		r.GenericName, r.BrandName, r.Salt, r.Manufacturer, r.Uses, r.SideEffects, r.Price)
}

var (
	ErrDrugNotFound   = errors.New("Drug not found in database.")
	ErrNoAlternatives = errors.New("No generic alternatives found for this drug.")
)

var columns = map[string]string{
	"generic name": "generic",
	"brand name":   "brand",
	"salt":         "salt",
	"composition":  "salt",
	"manufacturer": "manufacturer",
	"uses":         "uses",
	"side effects": "side_effects",
	"price":        "price",
}

// Dataset is the read-only medicine table loaded at startup.
type Dataset struct {
	Records  []Record
	generics []string
	brands   []string
}

// LoadCSV reads the dataset from a CSV file with a header row.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset failed, err: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses CSV rows; columns are matched by header name.
func Read(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header failed, err: %w", err)
	}
	idx := make(map[string]int)
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if field, ok := columns[h]; ok {
			if _, dup := idx[field]; !dup {
				idx[field] = i
			}
		}
	}
	if _, ok := idx["generic"]; !ok {
		if _, ok := idx["brand"]; !ok {
			return nil, errors.New("dataset has neither a Generic Name nor a Brand Name column")
		}
	}

	get := func(row []string, field string) string {
		i, ok := idx[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset row failed, err: %w", err)
		}
		rec := Record{
			GenericName:  get(row, "generic"),
			BrandName:    get(row, "brand"),
			Salt:         get(row, "salt"),
			Manufacturer: get(row, "manufacturer"),
			Uses:         get(row, "uses"),
			SideEffects:  get(row, "side_effects"),
			Price:        get(row, "price"),
		}
		if rec.GenericName == "" && rec.BrandName == "" {
			continue
		}
		records = append(records, rec)
	}
	return New(records), nil
}

// New indexes records.
func New(records []Record) *Dataset {
	d := &Dataset{Records: records}
	seenG := make(map[string]bool)
	seenB := make(map[string]bool)
	for _, r := range records {
		if g := strings.ToLower(r.GenericName); g != "" && !seenG[g] {
			seenG[g] = true
			d.generics = append(d.generics, r.GenericName)
		}
		if b := strings.ToLower(r.BrandName); b != "" && !seenB[b] {
			seenB[b] = true
			d.brands = append(d.brands, r.BrandName)
		}
	}
	return d
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Names returns every distinct generic and brand name, lower-cased.
func (d *Dataset) Names() []string {
	if d == nil {
		return nil
	}
	out := make([]string, 0, len(d.generics)+len(d.brands))
	for _, n := range d.generics {
		out = append(out, strings.ToLower(n))
	}
	for _, n := range d.brands {
		out = append(out, strings.ToLower(n))
	}
	return out
}

// MatchNames finds generic and brand names of the dataset that appear in
// text as whole words, spelled as in the dataset.
func (d *Dataset) MatchNames(text string) (generics, brands []string) {
	if d == nil {
		return nil, nil
	}
	lower := strings.ToLower(text)
	for _, g := range d.generics {
		if containsWord(lower, strings.ToLower(g)) {
			generics = append(generics, g)
		}
	}
	for _, b := range d.brands {
		if containsWord(lower, strings.ToLower(b)) {
			brands = append(brands, b)
		}
	}
	return generics, brands
}

// RowsFor returns the records whose generic or brand name is in names.
func (d *Dataset) RowsFor(names []string) []Record {
	if d == nil || len(names) == 0 {
		return nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.ToLower(n)] = true
	}
	var out []Record
	for _, r := range d.Records {
		if want[strings.ToLower(r.GenericName)] || want[strings.ToLower(r.BrandName)] {
			out = append(out, r)
		}
	}
	return out
}

// Salts returns the composition of the first record with the given brand.
func (d *Dataset) Salts(brand string) (string, bool) {
	if d == nil {
		return "", false
	}
	for _, r := range d.Records {
		if strings.EqualFold(r.BrandName, brand) && r.Salt != "" {
			return r.Salt, true
		}
	}
	return "", false
}

// Cheapest returns the distinct names of the rows with the lowest price
// among the rows for names (every row when names is empty). Rows whose price
// cannot be parsed are skipped.
func (d *Dataset) Cheapest(names []string) ([]string, float64, bool) {
	if d == nil {
		return nil, 0, false
	}
	rows := d.Records
	if len(names) > 0 {
		rows = d.RowsFor(names)
	}

	type priced struct {
		rec   Record
		price float64
	}
	var candidates []priced
	for _, r := range rows {
		p, err := ParsePrice(r.Price)
		if err != nil {
			logger.Debugf("dataset: skip unparseable price %q for %s: %v", r.Price, r.BrandName, err)
			continue
		}
		candidates = append(candidates, priced{rec: r, price: p})
	}
	if len(candidates) == 0 {
		return nil, 0, false
	}

	min := candidates[0].price
	for _, c := range candidates[1:] {
		if c.price < min {
			min = c.price
		}
	}
	seen := make(map[string]bool)
	var out []string
	add := func(n string) {
		if n != "" && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, c := range candidates {
		if c.price == min {
			add(c.rec.GenericName)
			add(c.rec.BrandName)
		}
	}
	return out, min, true
}

// Alternatives lists other brands sharing the composition of brand.
func (d *Dataset) Alternatives(brand string) ([]Record, error) {
	brand = strings.ToLower(strings.TrimSpace(brand))
	if d == nil || brand == "" {
		return nil, ErrDrugNotFound
	}
	var found *Record
	for i := range d.Records {
		if strings.Contains(strings.ToLower(d.Records[i].BrandName), brand) {
			found = &d.Records[i]
			break
		}
	}
	if found == nil {
		return nil, ErrDrugNotFound
	}
	composition := strings.ToLower(strings.TrimSpace(found.Salt))
	if composition == "" {
		return nil, ErrNoAlternatives
	}
	var out []Record
	for _, r := range d.Records {
		if strings.EqualFold(r.BrandName, found.BrandName) {
			continue
		}
		if strings.Contains(strings.ToLower(r.Salt), composition) {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoAlternatives
	}
	return out, nil
}

// ParsePrice reads a currency prefixed price such as "₹120.50" or
// "Rs. 1,250". Thousands separators are accepted.
func ParsePrice(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	start := strings.IndexFunc(trimmed, func(r rune) bool { return unicode.IsDigit(r) })
	if start < 0 {
		return 0, fmt.Errorf("no digits in price %q", s)
	}
	num := strings.ReplaceAll(trimmed[start:], ",", "")
	num = strings.TrimSpace(num)
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q failed, err: %w", s, err)
	}
	return v, nil
}

// FormatPrice renders a price without trailing zeros.
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	from := 0
	for {
		i := strings.Index(text[from:], word)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(word)
		if boundary(text, start-1) && boundary(text, end) {
			return true
		}
		from = start + 1
	}
}

func boundary(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	c := text[i]
	return !(c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z')
}
