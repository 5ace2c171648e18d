package kubeschema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/kreate/kubeschema"
	"go.jacobcolvin.com/kreate/manifest"
	"go.jacobcolvin.com/kreate/scalar"
	"go.jacobcolvin.com/kreate/stringtest"
	"go.jacobcolvin.com/kreate/yamlpath"
)

func TestReaderSchemaFromManifest(t *testing.T) {
	t.Parallel()

	cluster := newTestCluster(t, defaultDocs())
	reader := kubeschema.NewReader(kubeschema.NewResolver(cluster))

	content := stringtest.Input(`
		apiVersion: apps/v1
		kind: Deployment
		metadata:
		  name: web
		spec:
		  replicas: 3
		---
		apiVersion: v1
		kind: ConfigMap
	`)

	got, err := reader.SchemaFromManifest(t.Context(), []byte(content))
	require.NoError(t, err)

	assert.Equal(t, "Deployment", got.Kind)
	assert.Equal(t, "io.k8s.api.apps.v1.Deployment", got.Name)
	assert.Equal(t, "apps", got.GVK.Group)
}

func TestReaderSchemaFromManifestErrors(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		err     error
		content string
	}{
		"no documents": {
			content: "---\n",
			err:     manifest.ErrEmptyManifest,
		},
		"missing apiVersion": {
			content: "kind: Deployment\n",
			err:     manifest.ErrMissingAPIVersion,
		},
		"missing kind": {
			content: "apiVersion: apps/v1\n",
			err:     manifest.ErrMissingKind,
		},
		"unknown kind": {
			content: "apiVersion: apps/v1\nkind: Missing\n",
			err:     kubeschema.ErrResourceNotFound,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cluster := newTestCluster(t, defaultDocs())
			reader := kubeschema.NewReader(kubeschema.NewResolver(cluster))

			_, err := reader.SchemaFromManifest(t.Context(), []byte(tc.content))
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestReaderWithDecoder(t *testing.T) {
	t.Parallel()

	cluster := newTestCluster(t, defaultDocs())
	decoder := manifest.NewDecoder(manifest.WithRules(scalar.DefaultRules()))
	reader := kubeschema.NewReader(kubeschema.NewResolver(cluster), kubeschema.WithDecoder(decoder))

	got, err := reader.SchemaFromManifest(t.Context(), []byte("apiVersion: v1\nkind: ConfigMap\n"))
	require.NoError(t, err)
	assert.Equal(t, "io.k8s.api.core.v1.ConfigMap", got.Name)
}

func TestReaderPathAtPosition(t *testing.T) {
	t.Parallel()

	reader := kubeschema.NewReader(kubeschema.NewResolver(noCluster{}))

	assert.Equal(t, kubeschema.State{}, reader.State())

	content, offset := stringtest.Cursor("a:\n  b: ‸1\n  c: 2\n")

	got, err := reader.PathAtPosition([]byte(content), offset)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, kubeschema.State{Content: content, Position: offset}, reader.State())

	// Empty content returns early and keeps the previous state.
	got, err = reader.PathAtPosition(nil, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got)
	assert.Equal(t, kubeschema.State{Content: content, Position: offset}, reader.State())

	_, err = reader.PathAtPosition([]byte("a: [1\n"), 1)
	require.ErrorIs(t, err, yamlpath.ErrInvalidYAML)
	assert.Equal(t, kubeschema.State{Content: "a: [1\n", Position: 1}, reader.State())
}
