// Package bundle materializes generated artifacts into a publishable file tree.
package bundle

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sitesmith/deploy/pkg/deployment"
	"github.com/sitesmith/deploy/pkg/generator"
)

const (
	readmeFile        = "README.md"
	licenseFile       = "LICENSE"
	nojekyllFile      = ".nojekyll"
	gitattributesFile = ".gitattributes"
)

const gitattributes = "* text=auto\n" +
	"*.png binary\n" +
	"*.jpg binary\n" +
	"*.jpeg binary\n" +
	"*.gif binary\n" +
	"*.ico binary\n" +
	"*.pdf binary\n" +
	"*.svg binary\n"

const mitLicense = `MIT License

Copyright (c) %d

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
`

// Materialize writes a complete tree for a first publication: the generated
// artifacts, repository boilerplate, and any inline attachments.
func Materialize(dir string, set *generator.ArtifactSet, request *deployment.DeploymentRequest) error {
	err := writeArtifacts(dir, set, request)
	if err != nil {
		return err
	}

	boilerplate := map[string]string{
		licenseFile:       fmt.Sprintf(mitLicense, time.Now().Year()),
		nojekyllFile:      "",
		gitattributesFile: gitattributes,
	}
	for name, content := range boilerplate {
		err = writeFile(dir, name, []byte(content))
		if err != nil {
			return err
		}
	}

	return writeAttachments(dir, request.Attachments)
}

// WriteUpdate overwrites the generated artifacts and inline attachments in an
// already checked out tree. Boilerplate from the first publication is left alone.
func WriteUpdate(dir string, set *generator.ArtifactSet, request *deployment.DeploymentRequest) error {
	err := writeArtifacts(dir, set, request)
	if err != nil {
		return err
	}
	return writeAttachments(dir, request.Attachments)
}

// ReadTree returns the text files of a checked out tree keyed by slash-separated
// path relative to dir. The .git directory and binary files are skipped.
func ReadTree(dir string) (map[string]string, error) {
	files := make(map[string]string)

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if entry.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if !utf8.Valid(data) {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

func writeArtifacts(dir string, set *generator.ArtifactSet, request *deployment.DeploymentRequest) error {
	files := map[string]string{
		generator.ArtifactMarkup:     set.Markup,
		generator.ArtifactStylesheet: set.Stylesheet,
		generator.ArtifactScript:     set.Script,
		readmeFile:                   assembleReadme(request.Task, set.ReadmeBody),
	}
	for name, content := range files {
		err := writeFile(dir, name, []byte(content))
		if err != nil {
			return err
		}
	}
	return nil
}

func writeAttachments(dir string, attachments []deployment.Attachment) error {
	for _, attachment := range attachments {
		if !attachment.IsDataURI() {
			continue
		}
		_, data, err := attachment.DecodeDataURI()
		if err != nil {
			return err
		}
		err = writeFile(dir, attachment.Name, data)
		if err != nil {
			return err
		}
	}
	return nil
}

func assembleReadme(task, body string) string {
	return fmt.Sprintf("# %s\n\n%s\n\n---\n\nThis site is published with GitHub Pages.\n", task, strings.TrimSpace(body))
}

func writeFile(dir, name string, data []byte) error {
	path := filepath.Join(dir, name)

	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return fmt.Errorf("file name %q escapes the work directory", name)
	}

	err = os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return fmt.Errorf("create directory for %s: %w", name, err)
	}

	err = os.WriteFile(path, data, 0o644)
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	return nil
}
