package render

import "fmt"

// ConfigurationError reports a programming error in the graph wiring: an
// unknown target, a missing mesh or a record without a bound uniform.
// It is raised with panic at the call site.
type ConfigurationError struct {
	Kind string
	Name string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("render: unknown %s %q", e.Kind, e.Name)
}

// MissingTransformError means the camera has no matrices for an object this
// frame. The object is skipped for the pass that hit it.
type MissingTransformError struct {
	Pass   string
	Object string
}

func (e *MissingTransformError) Error() string {
	return fmt.Sprintf("render: pass %s: no transform for object %q", e.Pass, e.Object)
}
