package catalog

import (
	"encoding/xml"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/mugiliam/hatchreposrv/internal/db/models"
	"github.com/mugiliam/hatchreposrv/pkg/apperrors"
	"github.com/mugiliam/hatchreposrv/pkg/types"
)

// ErrIncompleteDescriptor marks a descriptor missing a required field.
// Cataloging for that upload is skipped; the upload itself is unaffected.
var ErrIncompleteDescriptor apperrors.Error = apperrors.New("descriptor is missing required fields").SetStatusCode(http.StatusUnprocessableEntity)

// VersionIndexFilename is the exact filename that triggers version-index
// cataloging.
const VersionIndexFilename = "maven-metadata.xml"

// ProjectDescriptorExt is the extension that triggers project-descriptor
// cataloging.
const ProjectDescriptorExt = ".pom"

// classifierDirPattern matches variant/classifier-suffixed path segments
// whose descriptors are excluded from cataloging.
var classifierDirPattern = regexp.MustCompile(`^([^_]+)_(debug|release)_([^_]+)$`)

// Event is one cataloging event derived from a descriptor: the coordinates
// plus whatever fields the document carried. Absent fields leave the stored
// catalog values untouched during the merge.
type Event struct {
	GroupID    string
	ArtifactID string
	Version    string

	// PointersValid marks events from a version-index descriptor, which is
	// the document of record for latest/release: an absent <latest> or
	// <release> element explicitly nulls the stored pointer.
	PointersValid bool
	Latest        types.NullableString
	Release       types.NullableString

	Description  types.NullableString
	Developers   []models.Contact
	Contributors []models.Contact
	Organization *models.Organization
	SCM          *models.SCM
}

// IsDescriptor reports whether the uploaded filename triggers cataloging.
// Descriptors under a classifier-suffixed path segment are excluded.
func IsDescriptor(relPath string) bool {
	dir, file := path.Split(strings.TrimSuffix(relPath, "/"))
	for _, segment := range strings.Split(strings.Trim(dir, "/"), "/") {
		if classifierDirPattern.MatchString(segment) {
			return false
		}
	}
	return file == VersionIndexFilename || strings.HasSuffix(file, ProjectDescriptorExt)
}

type versionIndexDoc struct {
	XMLName    xml.Name `xml:"metadata"`
	GroupID    string   `xml:"groupId"`
	ArtifactID string   `xml:"artifactId"`
	Versioning *struct {
		Latest   *string `xml:"latest"`
		Release  *string `xml:"release"`
		Versions *struct {
			Version []string `xml:"version"`
		} `xml:"versions"`
	} `xml:"versioning"`
}

// ParseVersionIndex extracts cataloging events from a maven-metadata.xml
// document: one event per listed version, each carrying the index's
// latest/release pointers.
func ParseVersionIndex(r io.Reader) ([]Event, error) {
	var doc versionIndexDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, ErrIncompleteDescriptor.Err(err)
	}
	if doc.GroupID == "" || doc.ArtifactID == "" {
		return nil, ErrIncompleteDescriptor.Msg("version index is missing groupId or artifactId")
	}
	if doc.Versioning == nil || doc.Versioning.Versions == nil {
		return nil, ErrIncompleteDescriptor.Msg("version index has no versioning/versions element")
	}

	latest := types.FromPtr(doc.Versioning.Latest)
	release := types.FromPtr(doc.Versioning.Release)

	events := make([]Event, 0, len(doc.Versioning.Versions.Version))
	for _, version := range doc.Versioning.Versions.Version {
		version = strings.TrimSpace(version)
		if version == "" {
			continue
		}
		events = append(events, Event{
			GroupID:       doc.GroupID,
			ArtifactID:    doc.ArtifactID,
			Version:       version,
			PointersValid: true,
			Latest:        latest,
			Release:       release,
		})
	}
	return events, nil
}

type contactXML struct {
	Name  string `xml:"name"`
	Email string `xml:"email"`
	URL   string `xml:"url"`
}

type projectDoc struct {
	XMLName xml.Name `xml:"project"`
	Parent  *struct {
		GroupID string `xml:"groupId"`
		Version string `xml:"version"`
	} `xml:"parent"`
	GroupID     string  `xml:"groupId"`
	ArtifactID  string  `xml:"artifactId"`
	Version     string  `xml:"version"`
	Description *string `xml:"description"`
	Developers  *struct {
		Developer []contactXML `xml:"developer"`
	} `xml:"developers"`
	Contributors *struct {
		Contributor []contactXML `xml:"contributor"`
	} `xml:"contributors"`
	Organization *struct {
		Name string `xml:"name"`
		URL  string `xml:"url"`
	} `xml:"organization"`
	SCM *struct {
		Connection          string `xml:"connection"`
		DeveloperConnection string `xml:"developerConnection"`
		URL                 string `xml:"url"`
		Tag                 string `xml:"tag"`
	} `xml:"scm"`
}

// ParseProjectDescriptor extracts a single cataloging event from a project
// descriptor (.pom). groupId and version fall back to the parent block when
// not set directly; a still-missing required field aborts the parse.
func ParseProjectDescriptor(r io.Reader) (*Event, error) {
	var doc projectDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, ErrIncompleteDescriptor.Err(err)
	}

	groupID := doc.GroupID
	version := doc.Version
	if doc.Parent != nil {
		if groupID == "" {
			groupID = doc.Parent.GroupID
		}
		if version == "" {
			version = doc.Parent.Version
		}
	}
	if groupID == "" || doc.ArtifactID == "" || version == "" {
		return nil, ErrIncompleteDescriptor.Msg("project descriptor is missing groupId, artifactId or version")
	}

	event := &Event{
		GroupID:     groupID,
		ArtifactID:  doc.ArtifactID,
		Version:     version,
		Description: types.FromPtr(doc.Description),
	}
	if doc.Developers != nil {
		event.Developers = contacts(doc.Developers.Developer)
	}
	if doc.Contributors != nil {
		event.Contributors = contacts(doc.Contributors.Contributor)
	}
	if doc.Organization != nil {
		event.Organization = &models.Organization{
			Name: doc.Organization.Name,
			URL:  doc.Organization.URL,
		}
	}
	if doc.SCM != nil {
		event.SCM = &models.SCM{
			Connection:          doc.SCM.Connection,
			DeveloperConnection: doc.SCM.DeveloperConnection,
			URL:                 doc.SCM.URL,
			Tag:                 doc.SCM.Tag,
		}
	}
	return event, nil
}

// contacts converts developer/contributor blocks, dropping entries without
// a name rather than aborting the whole list. Always returns a non-nil
// slice: a present-but-empty list is distinct from an absent one.
func contacts(entries []contactXML) []models.Contact {
	out := make([]models.Contact, 0, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		out = append(out, models.Contact{
			Name:  name,
			Email: strings.TrimSpace(e.Email),
			URL:   strings.TrimSpace(e.URL),
		})
	}
	return out
}
