// Copyright (C) 2022  Shanhu Tech Inc.
//
// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the
// Free Software Foundation, either version 3 of the License, or (at your
// option) any later version.
//
// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License
// for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package boxer

import (
	"path"
	"strings"
)

// makeRelPath makes a slash-separated relative path for f under p. The
// result never escapes p; an absolute f is treated as relative to p.
func makeRelPath(p, f string) string {
	f = path.Clean(path.Join("/", f))
	return strings.TrimPrefix(path.Join("/", p, f), "/")
}
