package kubeschema_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.jacobcolvin.com/kreate/kubeconfig"
)

const testIndex = `{
  "paths": {
    "api/v1": {"serverRelativeURL": "/openapi/v3/api/v1?hash=C0RE"},
    "apis/apps/v1": {"serverRelativeURL": "/openapi/v3/apis/apps/v1?hash=APPS"},
    "apis/bad.example.com/v1": {"serverRelativeURL": "/openapi/v3/apis/bad.example.com/v1"},
    "apis/broken.example.com/v1": {"serverRelativeURL": "/openapi/v3/apis/broken.example.com/v1"},
    "apis/empty.example.com/v1": {"serverRelativeURL": "/openapi/v3/apis/empty.example.com/v1"},
    "apis/blank.example.com/v1": {"serverRelativeURL": "/openapi/v3/apis/blank.example.com/v1"},
    "apis/none.example.com/v1": {"serverRelativeURL": "/openapi/v3/apis/none.example.com/v1"},
    "apis/relative.example.com/v1": {"serverRelativeURL": "openapi/v3/apis/relative.example.com/v1"}
  }
}`

const coreV1Spec = `{
  "openapi": "3.0.0",
  "info": {"title": "Kubernetes", "version": "v1.31.0"},
  "paths": {},
  "components": {
    "schemas": {
      "io.k8s.api.core.v1.ConfigMap": {
        "type": "object",
        "description": "ConfigMap holds configuration data for pods to consume.",
        "properties": {
          "data": {"type": "object", "additionalProperties": {"type": "string", "default": ""}}
        },
        "x-kubernetes-group-version-kind": [{"group": "", "version": "v1", "kind": "ConfigMap"}]
      }
    }
  }
}`

const appsV1Spec = `{
  "openapi": "3.0.0",
  "info": {"title": "Kubernetes", "version": "v1.31.0"},
  "paths": {},
  "components": {
    "schemas": {
      "io.k8s.api.apps.v1.DeploymentSpec": {
        "type": "object",
        "properties": {
          "replicas": {"type": "integer", "format": "int32", "minimum": 0, "exclusiveMinimum": true},
          "paused": {"type": "boolean", "nullable": true},
          "revisionHistoryLimit": {"type": "integer", "maximum": 10, "exclusiveMaximum": false}
        }
      },
      "io.k8s.api.apps.v1.Deployment": {
        "type": "object",
        "description": "Deployment enables declarative updates for Pods and ReplicaSets.",
        "properties": {
          "apiVersion": {"type": "string"},
          "kind": {"type": "string", "example": "Deployment"},
          "metadata": {
            "allOf": [{"$ref": "#/components/schemas/io.k8s.apimachinery.pkg.apis.meta.v1.ObjectMeta"}],
            "default": {}
          },
          "spec": {
            "allOf": [{"$ref": "#/components/schemas/io.k8s.api.apps.v1.DeploymentSpec"}],
            "default": {}
          }
        },
        "x-kubernetes-group-version-kind": [{"group": "apps", "version": "v1", "kind": "Deployment"}]
      },
      "io.k8s.apimachinery.pkg.apis.meta.v1.ObjectMeta": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "ownerReferences": {
            "type": "array",
            "items": {"$ref": "#/components/schemas/io.k8s.apimachinery.pkg.apis.meta.v1.OwnerReference"}
          }
        }
      },
      "io.k8s.apimachinery.pkg.apis.meta.v1.OwnerReference": {
        "type": "object",
        "properties": {"uid": {"type": "string"}}
      },
      "io.k8s.apimachinery.pkg.apis.meta.v1.DeleteOptions": {
        "type": "object",
        "x-kubernetes-group-version-kind": [
          {"group": "", "version": "v1", "kind": "DeleteOptions"},
          {"group": "apps", "version": "v1", "kind": "DeleteOptions"}
        ]
      },
      "io.z.Ordered": {
        "type": "object",
        "x-kubernetes-group-version-kind": [{"group": "apps", "version": "v1", "kind": "Ordered"}]
      },
      "io.a.Ordered": {
        "type": "object",
        "x-kubernetes-group-version-kind": [{"group": "apps", "version": "v1", "kind": "Ordered"}]
      },
      "io.k8s.api.apps.v1.Untyped": {
        "type": "object",
        "x-kubernetes-group-version-kind": []
      }
    }
  }
}`

const badGVKSpec = `{
  "openapi": "3.0.0",
  "info": {"title": "Widgets", "version": "v1"},
  "paths": {},
  "components": {
    "schemas": {
      "com.example.bad.v1.Widget": {
        "type": "object",
        "x-kubernetes-group-version-kind": [{"version": "v1", "kind": "Widget"}]
      }
    }
  }
}`

const brokenSpec = `{"info": {"title": "Broken"}}`

const emptySpec = `{
  "openapi": "3.0.0",
  "info": {"title": "Empty", "version": "v1"},
  "paths": {}
}`

const noSchemasSpec = `{
  "openapi": "3.0.0",
  "info": {"title": "None", "version": "v1"},
  "paths": {},
  "components": {"schemas": {}}
}`

// testCluster serves discovery documents keyed by URL path.
type testCluster struct {
	cluster       *kubeconfig.Cluster
	indexRequests atomic.Int32
	specRequests  atomic.Int32
}

func (c *testCluster) ActiveCluster() (*kubeconfig.Cluster, error) {
	return c.cluster, nil
}

func newTestCluster(t *testing.T, docs map[string]string) *testCluster {
	t.Helper()

	c := &testCluster{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/openapi/v3" {
			c.indexRequests.Add(1)
		} else {
			c.specRequests.Add(1)
		}

		body, ok := docs[r.URL.Path]
		if !ok {
			http.NotFound(w, r)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c.cluster = &kubeconfig.Cluster{
		Name:   "test",
		Server: srv.URL,
		Client: srv.Client(),
	}

	return c
}

func defaultDocs() map[string]string {
	return map[string]string{
		"/openapi/v3":                            testIndex,
		"/openapi/v3/api/v1":                     coreV1Spec,
		"/openapi/v3/apis/apps/v1":               appsV1Spec,
		"/openapi/v3/apis/bad.example.com/v1":    badGVKSpec,
		"/openapi/v3/apis/broken.example.com/v1": brokenSpec,
		"/openapi/v3/apis/empty.example.com/v1":  emptySpec,
		"/openapi/v3/apis/blank.example.com/v1":  "",
		"/openapi/v3/apis/none.example.com/v1":   noSchemasSpec,
	}
}
