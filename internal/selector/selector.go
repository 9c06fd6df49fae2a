// Package selector picks the installer artifact best suited to the host.
package selector

import (
	"sort"
	"strings"

	"github.com/ralt/appget/internal/models"
	"github.com/ralt/appget/internal/scanner"
	"github.com/sirupsen/logrus"
)

// Kind classes used to rank artifacts of equal architecture fit
const (
	ClassMSI     = "msi"
	ClassRPM     = "rpm"
	ClassArchive = "archive"
	ClassExe     = "exe"
	ClassUnknown = "unknown"
)

// DefaultKindPriority favours technologies with a reliable unattended mode
var DefaultKindPriority = []string{ClassMSI, ClassRPM, ClassArchive, ClassExe, ClassUnknown}

// archRank orders candidates by how well they fit the host
type archRank int

const (
	rankExact archRank = iota
	rankEmulated
	rankAgnostic
)

// Selector chooses one artifact from a manifest's candidate list
type Selector struct {
	priority map[string]int
}

// Option configures a Selector
type Option func(*Selector)

// WithKindPriority replaces the kind tie-break order. Classes not listed rank last.
func WithKindPriority(classes []string) Option {
	return func(s *Selector) {
		if len(classes) == 0 {
			return
		}
		s.priority = priorityIndex(classes)
	}
}

// New creates a selector
func New(opts ...Option) *Selector {
	s := &Selector{priority: priorityIndex(DefaultKindPriority)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func priorityIndex(classes []string) map[string]int {
	idx := make(map[string]int, len(classes))
	for i, c := range classes {
		c = strings.ToLower(c)
		if _, ok := idx[c]; !ok {
			idx[c] = i
		}
	}
	return idx
}

// KindClass maps an artifact location to its tie-break class
func KindClass(location string) string {
	kind := scanner.KindFromName(location)
	switch {
	case kind == scanner.KindMSI:
		return ClassMSI
	case kind == scanner.KindRPM:
		return ClassRPM
	case kind.IsArchive():
		return ClassArchive
	case kind.IsExecutable():
		return ClassExe
	}
	return ClassUnknown
}

func (s *Selector) kindRank(location string) int {
	if i, ok := s.priority[KindClass(location)]; ok {
		return i
	}
	return len(s.priority)
}

type candidate struct {
	artifact models.InstallerArtifact
	arch     archRank
	kind     int
}

// SelectBest returns the artifact the host should install. Exact architecture
// matches beat emulated ones, which beat architecture-agnostic ones; ties are
// broken by kind priority and then by list order.
func (s *Selector) SelectBest(artifacts []models.InstallerArtifact, host models.Architecture) (models.InstallerArtifact, error) {
	var candidates []candidate
	for _, a := range artifacts {
		arch := a.Architecture.Normalized()
		var rank archRank
		switch {
		case arch.IsAny():
			rank = rankAgnostic
		case arch == host.Normalized():
			rank = rankExact
		case host.Runs(arch):
			rank = rankEmulated
		default:
			logrus.Debugf("Skipping %s installer %s on %s host", arch, a.Location, host)
			continue
		}
		candidates = append(candidates, candidate{artifact: a, arch: rank, kind: s.kindRank(a.Location)})
	}

	if len(candidates) == 0 {
		return models.InstallerArtifact{}, models.NewError(models.ErrNoCompatibleInstaller, "",
			"none of %d installers runs on a %s host", len(artifacts), host)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].arch != candidates[j].arch {
			return candidates[i].arch < candidates[j].arch
		}
		return candidates[i].kind < candidates[j].kind
	})

	best := candidates[0].artifact
	logrus.Debugf("Selected %s installer %s", best.Architecture.Normalized(), best.Location)
	return best, nil
}

// SelectBest uses a selector with the default kind priority
func SelectBest(artifacts []models.InstallerArtifact, host models.Architecture) (models.InstallerArtifact, error) {
	return New().SelectBest(artifacts, host)
}
