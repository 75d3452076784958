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
	"os"

	"shanhu.io/misc/errcode"
)

// FileStat records a file in an output manifest.
type FileStat struct {
	Name         string // slash-separated path relative to the output
	Size         int64
	ModTimestamp int64
	Mode         uint32
	Digest       string `json:",omitempty"`
}

func newFileStat(name, f string) (*FileStat, error) {
	info, err := os.Lstat(f)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errcode.NotFoundf("%s not found", name)
		}
		return nil, err
	}

	digest, err := fileDigest(f)
	if err != nil {
		return nil, errcode.Annotatef(err, "digest %s", name)
	}

	return &FileStat{
		Name:         name,
		Size:         info.Size(),
		ModTimestamp: info.ModTime().UnixNano(),
		Mode:         uint32(info.Mode()),
		Digest:       digest,
	}, nil
}
