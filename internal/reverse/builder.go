package reverse

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/nao1215/imagescan/internal/model"
	"github.com/nao1215/imagescan/internal/session"
)

// Builder errors. ErrUnsupportedEngine is a caller mistake (bad request);
// ErrSessionNotFound covers unknown, expired, and mismatched token pairs
// without distinguishing them.
var (
	ErrUnsupportedEngine = errors.New("unsupported search engine")
	ErrSessionNotFound   = session.ErrSessionNotFound
)

// engineTemplate describes how one engine embeds the artifact URL.
type engineTemplate struct {
	// format is the search URL with one %s verb for the artifact URL.
	format string

	// raw disables percent-encoding of the artifact URL before
	// substitution. TinEye expects the URL verbatim.
	raw bool
}

// engines maps engine identifiers to their URL templates. Each template
// mirrors the engine's own share-by-URL entry point.
var engines = map[string]engineTemplate{
	"google": {
		format: "https://lens.google/search?ep=ccm&s=4&im=%s",
	},
	"bing": {
		format: "https://www.bing.com/images/search?view=detailv2&iss=SBI&form=SBIVSP&sbisrc=UrlPaste&q=imgurl:%[1]s&selectedindex=0&id=%[1]s&mediaurl=%[1]s",
	},
	"yandex": {
		format: "https://yandex.com/images/search?rpt=imageview&source=collections&url=%s",
	},
	"tineye": {
		format: "https://www.tineye.com/search?url=%s",
		raw:    true,
	},
}

// Engines returns the supported engine identifiers in sorted order.
func Engines() []string {
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SessionLookup verifies a session/image token pair.
type SessionLookup interface {
	GetForImage(sessionID, imageID string) (model.Session, error)
}

// Builder constructs engine search URLs for stored images.
type Builder struct {
	sessions SessionLookup
}

// NewBuilder creates a Builder over the given session lookup.
func NewBuilder(sessions SessionLookup) *Builder {
	return &Builder{sessions: sessions}
}

// Build returns the search URL for the given engine and token pair.
// publicBaseURL is the externally reachable base of this service, without a
// trailing slash.
func (b *Builder) Build(engine, publicBaseURL, sessionID, imageID string) (string, error) {
	tmpl, ok := engines[strings.ToLower(engine)]
	if !ok {
		return "", fmt.Errorf("%w: %q (valid engines: %s)",
			ErrUnsupportedEngine, engine, strings.Join(Engines(), ", "))
	}

	if _, err := b.sessions.GetForImage(sessionID, imageID); err != nil {
		return "", err
	}

	artifactURL := fmt.Sprintf("%s/uploads/%s/%s",
		strings.TrimSuffix(publicBaseURL, "/"), sessionID, imageID)
	if !tmpl.raw {
		artifactURL = url.QueryEscape(artifactURL)
	}
	return fmt.Sprintf(tmpl.format, artifactURL), nil
}
