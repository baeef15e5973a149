package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// auditRow mirrors the shape the site graph stores per audit run.
type auditRow struct {
	ID   string
	Site string
}

type stubResult struct {
	records []*neo4j.Record
	idx     int
}

func (s *stubResult) Next(ctx context.Context) bool {
	if s.idx < len(s.records) {
		s.idx++
		return true
	}
	return false
}

func (s *stubResult) Record() *neo4j.Record {
	return s.records[s.idx-1]
}

// stubSession records every statement the repo runs against it.
type stubSession struct {
	result  *stubResult
	err     error
	cyphers []string
	params  []map[string]any
}

func (s *stubSession) Run(ctx context.Context, cypher string, params map[string]any) (result, error) {
	s.cyphers = append(s.cyphers, cypher)
	s.params = append(s.params, params)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubSession) Close(ctx context.Context) error { return nil }

func rowRecord(id, site string) *neo4j.Record {
	return &neo4j.Record{
		Values: []any{map[string]any{"id": id, "site": site}},
		Keys:   []string{"n"},
	}
}

func auditRepo(sess *stubSession) *Neo4jRepo[auditRow, string] {
	r := NewNeo4jRepo[auditRow, string](
		nil, "Audit",
		func(a auditRow) map[string]any { return map[string]any{"id": a.ID, "site": a.Site} },
		func(rec *neo4j.Record) (auditRow, error) {
			m, ok := rec.Values[0].(map[string]any)
			if !ok {
				return auditRow{}, errors.New("record does not hold a node")
			}
			return auditRow{ID: m["id"].(string), Site: m["site"].(string)}, nil
		},
	)
	r.newSession = func(ctx context.Context) runner { return sess }
	return r
}

func TestGetReturnsMatch(t *testing.T) {
	sess := &stubSession{result: &stubResult{records: []*neo4j.Record{rowRecord("a1", "https://example.com")}}}
	r := auditRepo(sess)

	got, err := r.Get(context.Background(), "a1")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "a1" || got.Site != "https://example.com" {
		t.Fatalf("got %+v", got)
	}
	if sess.params[0]["id"] != "a1" {
		t.Fatalf("id param = %v", sess.params[0]["id"])
	}
}

func TestGetNotFound(t *testing.T) {
	r := auditRepo(&stubSession{result: &stubResult{}})
	_, err := r.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetPropagatesRunError(t *testing.T) {
	boom := errors.New("bolt connection refused")
	r := auditRepo(&stubSession{err: boom})
	if _, err := r.Get(context.Background(), "a1"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestListDecodesEveryRecord(t *testing.T) {
	sess := &stubSession{result: &stubResult{records: []*neo4j.Record{
		rowRecord("a1", "https://example.com"),
		rowRecord("a2", "https://example.com"),
	}}}
	r := auditRepo(sess)

	rows, err := r.List(context.Background(), ListOpts{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1].ID != "a2" {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestListDefaultsLimit(t *testing.T) {
	sess := &stubSession{result: &stubResult{}}
	r := auditRepo(sess)

	if _, err := r.List(context.Background(), ListOpts{}); err != nil {
		t.Fatal(err)
	}
	if sess.params[0]["limit"] != 100 {
		t.Fatalf("limit param = %v, want 100", sess.params[0]["limit"])
	}
}

func TestListFilterAndOrder(t *testing.T) {
	sess := &stubSession{result: &stubResult{}}
	r := auditRepo(sess)

	_, err := r.List(context.Background(), ListOpts{
		Limit:   5,
		Filter:  map[string]any{"site": "https://example.com", "kind": "service"},
		OrderBy: "timestamp DESC",
	})
	if err != nil {
		t.Fatal(err)
	}

	// Filter keys are sorted so the statement is stable across runs.
	want := "MATCH (n:Audit) WHERE n.kind = $f_kind AND n.site = $f_site RETURN n ORDER BY n.timestamp DESC SKIP $offset LIMIT $limit"
	if sess.cyphers[0] != want {
		t.Fatalf("cypher = %q, want %q", sess.cyphers[0], want)
	}
	if sess.params[0]["f_site"] != "https://example.com" || sess.params[0]["f_kind"] != "service" {
		t.Fatalf("filter params = %v", sess.params[0])
	}
}

func TestListStopsOnDecodeError(t *testing.T) {
	bad := &neo4j.Record{Values: []any{"not a node"}, Keys: []string{"n"}}
	r := auditRepo(&stubSession{result: &stubResult{records: []*neo4j.Record{bad}}})
	if _, err := r.List(context.Background(), ListOpts{Limit: 10}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestCreateReturnsStoredRow(t *testing.T) {
	sess := &stubSession{result: &stubResult{records: []*neo4j.Record{rowRecord("a3", "https://example.com")}}}
	r := auditRepo(sess)

	got, err := r.Create(context.Background(), auditRow{ID: "a3", Site: "https://example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "a3" {
		t.Fatalf("got %+v", got)
	}
	props, ok := sess.params[0]["props"].(map[string]any)
	if !ok || props["site"] != "https://example.com" {
		t.Fatalf("props param = %v", sess.params[0]["props"])
	}
}

func TestCreateWithoutResultErrors(t *testing.T) {
	r := auditRepo(&stubSession{result: &stubResult{}})
	if _, err := r.Create(context.Background(), auditRow{ID: "a3"}); err == nil {
		t.Fatal("expected error when create returns no row")
	}
}

func TestUpdateNotFound(t *testing.T) {
	r := auditRepo(&stubSession{result: &stubResult{}})
	_, err := r.Update(context.Background(), auditRow{ID: "missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateSetsProps(t *testing.T) {
	sess := &stubSession{result: &stubResult{records: []*neo4j.Record{rowRecord("a1", "https://new.example.com")}}}
	r := auditRepo(sess)

	got, err := r.Update(context.Background(), auditRow{ID: "a1", Site: "https://new.example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Site != "https://new.example.com" {
		t.Fatalf("got %+v", got)
	}
}

func TestDeleteMatchesByID(t *testing.T) {
	sess := &stubSession{result: &stubResult{}}
	r := auditRepo(sess)

	if err := r.Delete(context.Background(), "a1"); err != nil {
		t.Fatal(err)
	}
	if sess.cyphers[0] != "MATCH (n:Audit {id: $id}) DELETE n" {
		t.Fatalf("cypher = %q", sess.cyphers[0])
	}
}

// TestPageRepoCypherShapes pins the statements generated for a URL-keyed
// label, the way the site graph stores pages.
func TestPageRepoCypherShapes(t *testing.T) {
	sess := &stubSession{}
	r := NewNeo4jRepo[auditRow, string](
		nil, "Page",
		func(a auditRow) map[string]any { return map[string]any{"url": a.ID} },
		func(rec *neo4j.Record) (auditRow, error) {
			m := rec.Values[0].(map[string]any)
			return auditRow{ID: m["id"].(string), Site: m["site"].(string)}, nil
		},
		WithIDKey[auditRow, string]("url"),
	)
	r.newSession = func(ctx context.Context) runner {
		sess.result = &stubResult{records: []*neo4j.Record{rowRecord("https://example.com/contact", "")}}
		return sess
	}

	ctx := context.Background()
	r.Get(ctx, "https://example.com/contact")
	r.List(ctx, ListOpts{Limit: 50})
	r.Create(ctx, auditRow{ID: "https://example.com/contact"})
	r.Update(ctx, auditRow{ID: "https://example.com/contact"})
	r.Delete(ctx, "https://example.com/contact")

	want := []string{
		"MATCH (n:Page {url: $id}) RETURN n",
		"MATCH (n:Page) RETURN n SKIP $offset LIMIT $limit",
		"CREATE (n:Page $props) RETURN n",
		"MATCH (n:Page {url: $id}) SET n += $props RETURN n",
		"MATCH (n:Page {url: $id}) DELETE n",
	}
	if len(sess.cyphers) != len(want) {
		t.Fatalf("got %d statements, want %d", len(sess.cyphers), len(want))
	}
	for i, w := range want {
		if sess.cyphers[i] != w {
			t.Errorf("[%d] got %q, want %q", i, sess.cyphers[i], w)
		}
	}
}

type fakeDriver struct {
	neo4j.DriverWithContext
	sessions int
}

type fakeDriverSession struct {
	neo4j.SessionWithContext
}

func (d *fakeDriver) NewSession(_ context.Context, _ neo4j.SessionConfig) neo4j.SessionWithContext {
	d.sessions++
	return &fakeDriverSession{}
}

func TestSessionFallsBackToDriver(t *testing.T) {
	fd := &fakeDriver{}
	r := &Neo4jRepo[auditRow, string]{driver: fd}

	sess := r.session(context.Background())
	if sess == nil {
		t.Fatal("expected a session")
	}
	if fd.sessions != 1 {
		t.Fatalf("driver sessions = %d, want 1", fd.sessions)
	}
	if _, ok := sess.(*neo4jSessionAdapter); !ok {
		t.Fatalf("session type = %T, want *neo4jSessionAdapter", sess)
	}
}
