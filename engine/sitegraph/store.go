package sitegraph

import (
	"context"
	"fmt"
	"time"

	"github.com/OutrankHQ/siteaudit/engine/domain"
	"github.com/OutrankHQ/siteaudit/pkg/repo"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Store provides site graph operations on top of Neo4j.
type Store struct {
	driver neo4j.DriverWithContext
	pages  *repo.Neo4jRepo[Page, string]
	audits *repo.Neo4jRepo[AuditRecord, string]
}

// New creates a Store.
func New(driver neo4j.DriverWithContext) *Store {
	return &Store{
		driver: driver,
		pages:  newPageRepo(driver),
		audits: newAuditRepo(driver),
	}
}

func newPageRepo(driver neo4j.DriverWithContext) *repo.Neo4jRepo[Page, string] {
	return repo.NewNeo4jRepo[Page, string](
		driver,
		"Page",
		pageToMap,
		pageFromRecord,
		repo.WithIDKey[Page, string]("url"),
	)
}

func newAuditRepo(driver neo4j.DriverWithContext) *repo.Neo4jRepo[AuditRecord, string] {
	return repo.NewNeo4jRepo[AuditRecord, string](
		driver,
		"Audit",
		auditToMap,
		auditFromRecord,
	)
}

func pageToMap(p Page) map[string]any {
	return map[string]any{
		"url":        p.URL,
		"title":      p.Title,
		"kind":       p.Kind,
		"word_count": p.WordCount,
		"https":      p.HTTPS,
	}
}

func pageFromRecord(rec *neo4j.Record) (Page, error) {
	node, _, err := neo4j.GetRecordValue[dbtype.Node](rec, "n")
	if err != nil {
		return Page{}, err
	}
	props := node.Props
	p := Page{
		URL:   strProp(props, "url"),
		Title: strProp(props, "title"),
		Kind:  strProp(props, "kind"),
	}
	if v, ok := props["word_count"].(int64); ok {
		p.WordCount = int(v)
	}
	if v, ok := props["https"].(bool); ok {
		p.HTTPS = v
	}
	return p, nil
}

func strProp(props map[string]any, key string) string {
	if v, ok := props[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Page returns a stored page by URL.
func (s *Store) Page(ctx context.Context, url string) (Page, error) {
	return s.pages.Get(ctx, url)
}

// SaveStructure writes the crawled site as Page nodes under a Site node,
// with LINKS_TO edges between crawled pages. Re-saving merges in place.
func (s *Store) SaveStructure(ctx context.Context, siteURL string, st domain.SiteStructure) error {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	pages := pagesOf(st)
	links := linksOf(st)

	_, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `MERGE (s:Site {url: $url})`, map[string]any{"url": siteURL}); err != nil {
			return nil, err
		}
		for _, p := range pages {
			cypher := `MATCH (s:Site {url: $site})
				MERGE (p:Page {url: $url})
				SET p += $props
				MERGE (s)-[:HAS_PAGE]->(p)`
			if _, err := tx.Run(ctx, cypher, map[string]any{
				"site":  siteURL,
				"url":   p.URL,
				"props": pageToMap(p),
			}); err != nil {
				return nil, err
			}
		}
		for _, l := range links {
			cypher := `MATCH (a:Page {url: $from}), (b:Page {url: $to})
				MERGE (a)-[:LINKS_TO]->(b)`
			if _, err := tx.Run(ctx, cypher, map[string]any{
				"from": l.From,
				"to":   l.To,
			}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// SaveAudit stores a report as an Audit node with one Finding node per
// item. The audit ID is deterministic, so replaying a run is idempotent.
func (s *Store) SaveAudit(ctx context.Context, r domain.RivalAudit) error {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	rec := recordOf(r)
	findings := findingsOf(r)

	_, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		cypher := `MERGE (s:Site {url: $site})
			MERGE (a:Audit {id: $id})
			SET a += $props
			MERGE (s)-[:AUDITED]->(a)`
		if _, err := tx.Run(ctx, cypher, map[string]any{
			"site":  rec.SiteURL,
			"id":    rec.ID,
			"props": auditToMap(rec),
		}); err != nil {
			return nil, err
		}

		for _, f := range findings {
			cypher := `MATCH (a:Audit {id: $auditID})
				MERGE (f:Finding {id: $fid})
				SET f.category = $category,
					f.name = $name,
					f.status = $status,
					f.importance = $importance,
					f.notes = $notes
				MERGE (a)-[:FOUND]->(f)`
			fid := fmt.Sprintf("%s/%s/%s", rec.ID, f.Category, f.Name)
			if _, err := tx.Run(ctx, cypher, map[string]any{
				"auditID":    rec.ID,
				"fid":        fid,
				"category":   f.Category,
				"name":       f.Name,
				"status":     f.Status,
				"importance": f.Importance,
				"notes":      f.Notes,
			}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// RecentAudits returns the latest stored audit summaries for a site,
// newest first.
func (s *Store) RecentAudits(ctx context.Context, siteURL string, limit int) ([]AuditRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.audits.List(ctx, repo.ListOpts{
		Limit:   limit,
		Filter:  map[string]any{"site": siteURL},
		OrderBy: "timestamp DESC",
	})
}

func auditToMap(a AuditRecord) map[string]any {
	return map[string]any{
		"id":           a.ID,
		"site":         a.SiteURL,
		"timestamp":    a.Timestamp,
		"priority_ofi": a.PriorityOFI,
		"ofi":          a.OFI,
		"ok":           a.OK,
		"na":           a.NA,
		"total":        a.Total,
	}
}

func auditFromRecord(rec *neo4j.Record) (AuditRecord, error) {
	node, _, err := neo4j.GetRecordValue[dbtype.Node](rec, "n")
	if err != nil {
		return AuditRecord{}, err
	}
	props := node.Props
	out := AuditRecord{
		ID:      strProp(props, "id"),
		SiteURL: strProp(props, "site"),
	}
	if v, ok := props["timestamp"].(time.Time); ok {
		out.Timestamp = v
	}
	intProp := func(key string) int {
		if v, ok := props[key].(int64); ok {
			return int(v)
		}
		return 0
	}
	out.PriorityOFI = intProp("priority_ofi")
	out.OFI = intProp("ofi")
	out.OK = intProp("ok")
	out.NA = intProp("na")
	out.Total = intProp("total")
	return out, nil
}
