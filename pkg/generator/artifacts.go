package generator

import (
	"errors"
	"fmt"
	"strings"
)

// Artifact names a generation round must produce. These are the JSON keys
// of the model response.
const (
	ArtifactMarkup     = "index.html"
	ArtifactStylesheet = "styles.css"
	ArtifactScript     = "script.js"
	ArtifactReadme     = "readme"
)

var ErrIncompleteArtifacts = errors.New("model response is missing one or more artifacts")

// ArtifactSet holds the generated application sources. A set is only valid
// when all four artifacts are present and non-empty; partial responses are
// rejected outright.
type ArtifactSet struct {
	Markup     string `json:"index.html"`
	Stylesheet string `json:"styles.css"`
	Script     string `json:"script.js"`
	ReadmeBody string `json:"readme"`
}

func (s *ArtifactSet) Validate() error {
	missing := make([]string, 0, 4)

	for _, artifact := range []struct {
		name    string
		content string
	}{
		{ArtifactMarkup, s.Markup},
		{ArtifactStylesheet, s.Stylesheet},
		{ArtifactScript, s.Script},
		{ArtifactReadme, s.ReadmeBody},
	} {
		if len(strings.TrimSpace(artifact.content)) == 0 {
			missing = append(missing, artifact.name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrIncompleteArtifacts, strings.Join(missing, ", "))
	}

	return nil
}

func artifactSetFromFiles(files map[string]string) (*ArtifactSet, error) {
	set := &ArtifactSet{
		Markup:     files[ArtifactMarkup],
		Stylesheet: files[ArtifactStylesheet],
		Script:     files[ArtifactScript],
		ReadmeBody: files[ArtifactReadme],
	}

	if err := set.Validate(); err != nil {
		return nil, err
	}

	return set, nil
}
