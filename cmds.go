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
	"io"
	"os"
	"os/exec"

	"shanhu.io/misc/osutil"
)

// execJob is an external tool invocation.
type execJob struct {
	dir  string
	bin  string
	args []string
	env  map[string]string
	out  io.Writer
}

func (j *execJob) command() *exec.Cmd {
	cmd := exec.Command(j.bin, j.args...)
	cmd.Dir = j.dir
	if j.out == nil {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stdout = j.out
		cmd.Stderr = j.out
	}
	osutil.CmdCopyEnv(cmd, "HOME")
	osutil.CmdCopyEnv(cmd, "PATH")
	osutil.CmdCopyEnv(cmd, "TMPDIR")
	osutil.CmdCopyEnv(cmd, "SSH_AUTH_SOCK")
	osutil.CmdCopyEnv(cmd, "SYSTEMROOT")
	for k, v := range j.env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	return cmd
}
