package validate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const minimalValidProject = `{
  "targets": [
    {"isStage": true, "name": "Stage", "variables": {}, "lists": {}, "blocks": {}, "costumes": [], "sounds": []}
  ],
  "monitors": [],
  "extensions": [],
  "meta": {"semver": "3.0.0", "vm": "0.2.0", "agent": "goboscript v0.1.0"}
}`

func TestProjectValid(t *testing.T) {
	violations, err := Project([]byte(minimalValidProject))
	require.NoError(t, err)
	require.Empty(t, violations)
}

func TestProjectMissingRequiredField(t *testing.T) {
	const doc = `{
    "targets": [
      {"isStage": true, "name": "Stage", "lists": {}, "blocks": {}, "costumes": [], "sounds": []}
    ],
    "monitors": [], "extensions": [], "meta": {"semver": "3.0.0", "vm": "0.2.0", "agent": "a"}
  }`
	violations, err := Project([]byte(doc))
	require.NoError(t, err)
	require.NotEmpty(t, violations, "missing target.variables should be flagged")
}

func TestProjectBadSemver(t *testing.T) {
	const doc = `{
    "targets": [
      {"isStage": true, "name": "Stage", "variables": {}, "lists": {}, "blocks": {}, "costumes": [], "sounds": []}
    ],
    "monitors": [], "extensions": [], "meta": {"semver": "not-a-version", "vm": "0.2.0", "agent": "a"}
  }`
	violations, err := Project([]byte(doc))
	require.NoError(t, err)
	require.NotEmpty(t, violations, "meta.semver must satisfy the semver format")
}

func TestIsSemver(t *testing.T) {
	require.True(t, isSemver("3.0.0"))
	require.True(t, isSemver("0.2.0"))
	require.False(t, isSemver("banana"))
	require.True(t, isSemver(42), "non-string values are not this format's concern")
}

func TestProjectInvalidJSON(t *testing.T) {
	_, err := Project([]byte("{not json"))
	require.Error(t, err)
}
