// Package types provides core types shared across the deepresearch module.
// This package has ZERO dependencies on other deepresearch packages to avoid
// circular imports. All other packages should import types from here.
package types
