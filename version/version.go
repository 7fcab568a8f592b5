// Copyright 2017 The Upspin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The version package is used by the release process to add an
// informative version string to some commands.
package version

import (
	"fmt"
	"time"
)

// Release is the tool version recorded in every LOGFILE entry.
const Release = "3.0"

// These strings will be overwritten by the release process through
// -ldflags "-X turnin.io/version.GitSHA=...".
var (
	BuildTime = time.Time{}
	GitSHA    = ""
)

// Version returns a newline-terminated string describing the current
// version of the build.
func Version() string {
	str := fmt.Sprintf("turnin %s\n", Release)
	if GitSHA == "" {
		return str
	}
	if !BuildTime.IsZero() {
		str += fmt.Sprintf("Build time: %s\n", BuildTime.In(time.UTC).Format(time.Stamp+" 2006 UTC"))
	}
	str += fmt.Sprintf("Git hash:   %s\n", GitSHA)
	return str
}

// License is printed after the version by turnin -V.
const License = `
Copyright 2017 The Upspin Authors. All rights reserved.
Use of this source code is governed by a BSD-style
license that can be found in the LICENSE file.
`
