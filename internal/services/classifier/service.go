// -----------------------------------------------------------------------
// Domain classifier - assigns a domain label and profile version to a job
// from filename/content keywords using an ordered first-match rule table
// -----------------------------------------------------------------------

package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/confero/internal/interfaces"
	"github.com/ternarybob/confero/internal/models"
)

// rule binds a set of indicative keywords to a domain. Rules are evaluated
// in table order and the first rule matching any document wins, which keeps
// tie-breaks deterministic and testable.
type rule struct {
	domain   string
	keywords []string
}

// ruleTable is the fixed classification priority order.
var ruleTable = []rule{
	{domain: "semiconductors", keywords: []string{
		"semiconductor", "microcontroller", "mcu", "transistor", "diode",
		"resistor", "capacitor", "regulator", "op-amp", "opamp", "datasheet",
	}},
	{domain: "fasteners", keywords: []string{
		"fastener", "bolt", "screw", "washer", "rivet", "hex nut", "thread",
	}},
	{domain: "industrial_components", keywords: []string{
		"pump", "motor", "valve", "actuator", "compressor", "bearing", "gearbox",
	}},
}

const defaultDomain = "industrial_components"

// Service implements interfaces.ClassifierService.
type Service struct {
	jobs      interfaces.JobStorage
	artifacts interfaces.ArtifactStorage
	profiles  interfaces.ProfileService
	logger    arbor.ILogger
}

var _ interfaces.ClassifierService = (*Service)(nil)

func NewService(jobs interfaces.JobStorage, artifacts interfaces.ArtifactStorage, profiles interfaces.ProfileService, logger arbor.ILogger) *Service {
	return &Service{
		jobs:      jobs,
		artifacts: artifacts,
		profiles:  profiles,
		logger:    logger,
	}
}

// Classify resolves the job's domain and profile version, persists both on
// the job and ensures the bound profile exists. In forced mode the
// caller-supplied domain is used verbatim and no heuristic runs.
func (s *Service) Classify(ctx context.Context, job *models.Job, docs []*models.Document) (string, int, error) {
	domain := defaultDomain

	if job.DomainMode == models.DomainModeForced {
		if job.Domain == "" {
			return "", 0, fmt.Errorf("job %s has forced domain mode but no domain", job.ID)
		}
		domain = job.Domain
	} else {
		if matched, ok := s.matchDomain(ctx, docs); ok {
			domain = matched
		}
	}

	version := s.profiles.DefaultVersion(domain)
	if version == 0 {
		return "", 0, fmt.Errorf("unknown domain %q", domain)
	}
	if _, err := s.profiles.Ensure(ctx, domain, version); err != nil {
		return "", 0, fmt.Errorf("failed to provision profile for domain %s: %w", domain, err)
	}

	job.Domain = domain
	job.ProfileVersion = version
	if err := s.jobs.SaveJob(ctx, job); err != nil {
		return "", 0, fmt.Errorf("failed to persist classification for job %s: %w", job.ID, err)
	}

	s.logger.Info().
		Str("job_id", job.ID).
		Str("domain", domain).
		Int("profile_version", version).
		Str("mode", string(job.DomainMode)).
		Msg("Job classified")

	return domain, version, nil
}

// matchDomain walks the rule table in priority order against every
// document's filename, then its text artifacts when present. Artifacts are
// only available on re-submission after a parse; first-pass classification
// usually decides on filenames alone.
func (s *Service) matchDomain(ctx context.Context, docs []*models.Document) (string, bool) {
	haystacks := make([]string, 0, len(docs))
	for _, doc := range docs {
		haystacks = append(haystacks, strings.ToLower(doc.Filename))
	}
	for _, doc := range docs {
		artifacts, err := s.artifacts.GetArtifactsByDocument(ctx, doc.ID)
		if err != nil {
			continue
		}
		for _, a := range artifacts {
			if a.Type == models.ArtifactTypeText && a.Text != "" {
				haystacks = append(haystacks, strings.ToLower(a.Text))
			}
		}
	}

	for _, r := range ruleTable {
		for _, keyword := range r.keywords {
			for _, hay := range haystacks {
				if strings.Contains(hay, keyword) {
					return r.domain, true
				}
			}
		}
	}
	return "", false
}
