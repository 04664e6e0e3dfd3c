package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const versionIndexDocXML = `<?xml version="1.0" encoding="UTF-8"?>
<metadata>
  <groupId>com.example</groupId>
  <artifactId>lib</artifactId>
  <versioning>
    <latest>1.1</latest>
    <release>1.0</release>
    <versions>
      <version>1.0</version>
      <version>1.1</version>
    </versions>
    <lastUpdated>20240101000000</lastUpdated>
  </versioning>
</metadata>`

func TestParseVersionIndex(t *testing.T) {
	events, err := ParseVersionIndex(strings.NewReader(versionIndexDocXML))
	assert.NoError(t, err)
	assert.Len(t, events, 2)

	assert.Equal(t, "com.example", events[0].GroupID)
	assert.Equal(t, "lib", events[0].ArtifactID)
	assert.Equal(t, "1.0", events[0].Version)
	assert.Equal(t, "1.1", events[1].Version)
	for _, e := range events {
		assert.True(t, e.PointersValid)
		assert.Equal(t, "1.1", e.Latest.Value)
		assert.True(t, e.Latest.Valid)
		assert.Equal(t, "1.0", e.Release.Value)
		assert.True(t, e.Release.Valid)
	}
}

func TestParseVersionIndexAbsentPointers(t *testing.T) {
	doc := `<metadata>
  <groupId>com.example</groupId>
  <artifactId>lib</artifactId>
  <versioning>
    <versions>
      <version>0.1-SNAPSHOT</version>
    </versions>
  </versioning>
</metadata>`
	events, err := ParseVersionIndex(strings.NewReader(doc))
	assert.NoError(t, err)
	assert.Len(t, events, 1)
	// Absent <latest>/<release> elements explicitly null the pointers.
	assert.True(t, events[0].PointersValid)
	assert.True(t, events[0].Latest.IsNil())
	assert.True(t, events[0].Release.IsNil())
}

func TestParseVersionIndexMissingRequired(t *testing.T) {
	doc := `<metadata>
  <artifactId>lib</artifactId>
  <versioning><versions><version>1.0</version></versions></versioning>
</metadata>`
	_, err := ParseVersionIndex(strings.NewReader(doc))
	assert.ErrorIs(t, err, ErrIncompleteDescriptor)

	doc = `<metadata>
  <groupId>com.example</groupId>
  <artifactId>lib</artifactId>
</metadata>`
	_, err = ParseVersionIndex(strings.NewReader(doc))
	assert.ErrorIs(t, err, ErrIncompleteDescriptor)
}

func TestParseProjectDescriptor(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <groupId>com.example</groupId>
  <artifactId>lib</artifactId>
  <version>1.1</version>
  <description>An example library</description>
  <developers>
    <developer><name>Ann</name><email>ann@example.com</email></developer>
    <developer><email>nameless@example.com</email></developer>
  </developers>
  <organization><name>Example Org</name><url>https://example.com</url></organization>
  <scm><connection>scm:git:https://example.com/lib.git</connection><tag>v1.1</tag></scm>
</project>`
	event, err := ParseProjectDescriptor(strings.NewReader(doc))
	assert.NoError(t, err)
	assert.Equal(t, "com.example", event.GroupID)
	assert.Equal(t, "lib", event.ArtifactID)
	assert.Equal(t, "1.1", event.Version)
	assert.False(t, event.PointersValid)
	assert.Equal(t, "An example library", event.Description.Value)

	// The nameless developer is dropped without aborting the list.
	assert.Len(t, event.Developers, 1)
	assert.Equal(t, "Ann", event.Developers[0].Name)
	assert.Equal(t, "ann@example.com", event.Developers[0].Email)

	assert.Nil(t, event.Contributors)
	assert.NotNil(t, event.Organization)
	assert.Equal(t, "Example Org", event.Organization.Name)
	assert.NotNil(t, event.SCM)
	assert.Equal(t, "v1.1", event.SCM.Tag)
}

func TestParseProjectDescriptorOptionalAbsent(t *testing.T) {
	doc := `<project>
  <groupId>com.example</groupId>
  <artifactId>lib</artifactId>
  <version>1.0</version>
</project>`
	event, err := ParseProjectDescriptor(strings.NewReader(doc))
	assert.NoError(t, err)
	// Absent optional fields are "not provided", distinct from empty.
	assert.True(t, event.Description.IsNil())
	assert.Nil(t, event.Developers)
	assert.Nil(t, event.Contributors)
	assert.Nil(t, event.Organization)
	assert.Nil(t, event.SCM)
}

func TestParseProjectDescriptorParentFallback(t *testing.T) {
	doc := `<project>
  <parent>
    <groupId>com.example</groupId>
    <artifactId>parent</artifactId>
    <version>2.0</version>
  </parent>
  <artifactId>child</artifactId>
</project>`
	event, err := ParseProjectDescriptor(strings.NewReader(doc))
	assert.NoError(t, err)
	assert.Equal(t, "com.example", event.GroupID)
	assert.Equal(t, "child", event.ArtifactID)
	assert.Equal(t, "2.0", event.Version)
}

func TestParseProjectDescriptorMissingRequired(t *testing.T) {
	doc := `<project>
  <groupId>com.example</groupId>
  <version>1.0</version>
</project>`
	_, err := ParseProjectDescriptor(strings.NewReader(doc))
	assert.ErrorIs(t, err, ErrIncompleteDescriptor)
}

func TestIsDescriptor(t *testing.T) {
	assert.True(t, IsDescriptor("com/example/lib/maven-metadata.xml"))
	assert.True(t, IsDescriptor("com/example/lib/1.0/lib-1.0.pom"))
	assert.False(t, IsDescriptor("com/example/lib/1.0/lib-1.0.jar"))
	assert.False(t, IsDescriptor("com/example/lib/1.0/lib-1.0.module"))

	// Classifier-suffixed segments are excluded from cataloging.
	assert.False(t, IsDescriptor("com/example/lib_debug_x64/maven-metadata.xml"))
	assert.False(t, IsDescriptor("com/example/lib_release_arm64/1.0/lib-1.0.pom"))
	assert.True(t, IsDescriptor("com/example/lib_stage_x64/maven-metadata.xml"))
}
