// Package fixture loads hand-written YAML corpora into ingestion batches.
// Records are named by short keys; ids are derived from the keys so a corpus
// maps to the same ids every time it is loaded.
package fixture

import (
	"embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed corpora/*.yaml
var corporaFS embed.FS

// Namespace seeds the key-derived ids.
var Namespace = uuid.MustParse("6f2c1c9e-8d0a-5b7e-9f3a-2e4d5c6b7a81")

type Corpus struct {
	Name       string      `yaml:"name"`
	Filings    []Filing    `yaml:"filings"`
	Documents  []Document  `yaml:"documents"`
	Events     []Event     `yaml:"events"`
	Statements []Statement `yaml:"statements"`
	Indicators []Indicator `yaml:"indicators"`
}

type Filing struct {
	Key              string     `yaml:"key"`
	Kind             string     `yaml:"kind"`
	Title            string     `yaml:"title"`
	FiledAt          *time.Time `yaml:"filed_at"`
	RequiredElements []string   `yaml:"required_elements"`
	Granted          int        `yaml:"granted"`
	Decided          int        `yaml:"decided"`
}

type Document struct {
	Key     string     `yaml:"key"`
	Filing  string     `yaml:"filing"`
	Kind    string     `yaml:"kind"`
	Title   string     `yaml:"title"`
	FiledAt *time.Time `yaml:"filed_at"`
}

type Event struct {
	Key          string     `yaml:"key"`
	OccurredAt   time.Time  `yaml:"occurred_at"`
	VerifiedAt   *time.Time `yaml:"verified_at"`
	Description  string     `yaml:"description"`
	Subject      string     `yaml:"subject"`
	Negated      bool       `yaml:"negated"`
	Status       string     `yaml:"status"`
	Category     string     `yaml:"category"`
	Participants []string   `yaml:"participants"`
	AdverseTo    []string   `yaml:"adverse_to"`
	Emergency    bool       `yaml:"emergency"`
}

type Statement struct {
	Key        string     `yaml:"key"`
	Document   string     `yaml:"document"`
	Locator    string     `yaml:"locator"`
	Speaker    string     `yaml:"speaker"`
	Text       string     `yaml:"text"`
	Kind       string     `yaml:"kind"`
	AssertedAt *time.Time `yaml:"asserted_at"`
	UnderOath  bool       `yaml:"under_oath"`
	Subject    string     `yaml:"subject"`
	Negated    bool       `yaml:"negated"`
	Urgent     bool       `yaml:"urgent"`
	ReliedUpon bool       `yaml:"relied_upon"`
}

// Indicator targets are written as "<type>:<key>", e.g. "event:service".
type Indicator struct {
	Key           string    `yaml:"key"`
	Target        string    `yaml:"target"`
	Stance        string    `yaml:"stance"`
	Credibility   int       `yaml:"credibility"`
	Type          string    `yaml:"type"`
	Authenticated bool      `yaml:"authenticated"`
	PublicRecord  bool      `yaml:"public_record"`
	Documents     string    `yaml:"documents"`
	Source        string    `yaml:"source"`
	Description   string    `yaml:"description"`
	RecordedAt    time.Time `yaml:"recorded_at"`
}

// ID derives the record id for a key; kind is "filing", "batch" or an
// entity type.
func ID(kind, key string) uuid.UUID {
	return uuid.NewSHA1(Namespace, []byte(kind+":"+key))
}

// Load parses a corpus from r.
func Load(r io.Reader) (*Corpus, error) {
	var c Corpus
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	return &c, nil
}

func LoadFile(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Builtin loads one of the corpora shipped with the binary.
func Builtin(name string) (*Corpus, error) {
	f, err := corporaFS.Open("corpora/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("corpus %q not found (available: %s)", name, strings.Join(List(), ", "))
	}
	defer f.Close()
	return Load(f)
}

// List returns the names of the builtin corpora, sorted.
func List() []string {
	entries, _ := corporaFS.ReadDir("corpora")
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
		}
	}
	sort.Strings(names)
	return names
}

// Batch converts the corpus into an ingestion batch. Unknown keys in
// references are reported; field validation is left to the pipeline so a
// malformed record shows up in the batch report like any other.
func (c *Corpus) Batch() (*domain.Batch, error) {
	known := map[string]bool{}
	for _, f := range c.Filings {
		known["filing:"+f.Key] = true
	}
	for _, d := range c.Documents {
		known["document:"+d.Key] = true
	}
	for _, e := range c.Events {
		known["event:"+e.Key] = true
	}
	for _, s := range c.Statements {
		known["statement:"+s.Key] = true
	}
	for _, i := range c.Indicators {
		known["evidence:"+i.Key] = true
	}
	var missing []string
	need := func(ref string) {
		if ref != "" && !known[ref] {
			missing = append(missing, ref)
		}
	}

	b := &domain.Batch{ID: uuid.New()}

	for _, f := range c.Filings {
		filing := domain.Filing{
			ID:               ID("filing", f.Key),
			Kind:             domain.FilingKind(f.Kind),
			Title:            f.Title,
			FiledAt:          f.FiledAt,
			RequiredElements: f.RequiredElements,
		}
		if f.Decided > 0 {
			filing.Outcomes = &domain.OutcomeStats{Granted: f.Granted, Total: f.Decided}
		}
		b.Filings = append(b.Filings, filing)
	}

	for _, d := range c.Documents {
		doc := domain.Document{
			ID:      ID(string(domain.EntityDocument), d.Key),
			Kind:    domain.DocumentKind(d.Kind),
			Title:   d.Title,
			FiledAt: d.FiledAt,
		}
		if d.Filing != "" {
			need("filing:" + d.Filing)
			id := ID("filing", d.Filing)
			doc.FilingID = &id
		}
		b.Documents = append(b.Documents, doc)
	}

	for _, e := range c.Events {
		b.Events = append(b.Events, domain.Event{
			ID:           ID(string(domain.EntityEvent), e.Key),
			OccurredAt:   e.OccurredAt,
			VerifiedAt:   e.VerifiedAt,
			Description:  e.Description,
			Subject:      e.Subject,
			Negated:      e.Negated,
			Status:       domain.VerificationStatus(e.Status),
			Category:     e.Category,
			Participants: e.Participants,
			AdverseTo:    e.AdverseTo,
			Emergency:    e.Emergency,
		})
	}

	for _, s := range c.Statements {
		need("document:" + s.Document)
		b.Statements = append(b.Statements, domain.Statement{
			ID:         ID(string(domain.EntityStatement), s.Key),
			DocumentID: ID(string(domain.EntityDocument), s.Document),
			Locator:    s.Locator,
			SpeakerID:  s.Speaker,
			Text:       s.Text,
			Kind:       domain.StatementKind(s.Kind),
			AssertedAt: s.AssertedAt,
			UnderOath:  s.UnderOath,
			Subject:    s.Subject,
			Negated:    s.Negated,
			Urgent:     s.Urgent,
			ReliedUpon: s.ReliedUpon,
		})
	}

	for _, i := range c.Indicators {
		typ, key, ok := strings.Cut(i.Target, ":")
		if !ok || !domain.ValidEntityType(typ) {
			return nil, fmt.Errorf("indicator %s: invalid target %q", i.Key, i.Target)
		}
		need(i.Target)
		ind := domain.EvidenceIndicator{
			ID:            ID(string(domain.EntityEvidence), i.Key),
			Target:        domain.EntityRef{Type: domain.EntityType(typ), ID: ID(typ, key)},
			Stance:        domain.Stance(i.Stance),
			Credibility:   i.Credibility,
			Type:          domain.IndicatorType(i.Type),
			Authenticated: i.Authenticated,
			PublicRecord:  i.PublicRecord,
			SourceRef:     i.Source,
			Description:   i.Description,
			RecordedAt:    i.RecordedAt,
		}
		if i.Documents != "" {
			need("event:" + i.Documents)
			id := ID(string(domain.EntityEvent), i.Documents)
			ind.DocumentedEventID = &id
		}
		b.Indicators = append(b.Indicators, ind)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("corpus %s: unknown references %s", c.Name, strings.Join(missing, ", "))
	}
	return b, nil
}
