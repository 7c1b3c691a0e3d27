// Package backend registriert alle verfuegbaren Compute-Backends
package backend

import (
	_ "github.com/pyrflow/pyrflow/ml/backend/cpu"
)
