// Package config defines the provisioning manifest: the static data
// (mirror, packages, images, conda spec, source tools, retry budget) that
// parameterizes the fixed step sequence. Manifests are YAML, layered over
// built-in defaults and validated with struct tags.
package config
