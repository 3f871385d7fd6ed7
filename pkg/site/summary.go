package site

import (
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/chaijs/docsite/pkg/models"
)

// Summary describes a finished build
type Summary struct {
	Pages     int                 `json:"pages"`     // Pages rendered (written or unchanged)
	Unchanged int                 `json:"unchanged"` // Pages whose output already matched
	Assets    int                 `json:"assets"`    // Passthrough files copied
	Bytes     int64               `json:"bytes"`     // Total bytes of pages and assets
	Errors    map[string]int      `json:"errors"`    // Error category -> count
	Duration  time.Duration       `json:"duration"`
	Results   []models.PageResult `json:"results"`
}

func newSummary() *Summary {
	return &Summary{Errors: make(map[string]int)}
}

func (s *Summary) add(r models.PageResult) {
	s.Results = append(s.Results, r)
	switch r.Status {
	case models.OutputStatusCopied:
		s.Assets++
	case models.OutputStatusUnchanged:
		s.Pages++
		s.Unchanged++
	case models.OutputStatusWritten:
		s.Pages++
	}
	if r.Status.Succeeded() {
		s.Bytes += r.Bytes
	}
}

func (s *Summary) fail(category string) {
	s.Errors[category]++
}

func (s *Summary) finish(start, end time.Time) {
	s.Duration = end.Sub(start)
	sort.Slice(s.Results, func(i, j int) bool { return s.Results[i].Output < s.Results[j].Output })
}

// Log writes the summary at info level, with error categories at warn
func (s *Summary) Log(log *logrus.Entry) {
	log.WithFields(logrus.Fields{
		"pages":     s.Pages,
		"unchanged": s.Unchanged,
		"assets":    s.Assets,
		"size":      humanize.Bytes(uint64(s.Bytes)),
		"duration":  s.Duration.Round(time.Millisecond),
	}).Info("Build finished")

	categories := make([]string, 0, len(s.Errors))
	for c := range s.Errors {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		log.WithField("error_type", c).Warnf("%d failure(s)", s.Errors[c])
	}
}
