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
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"go.starlark.net/starlark"
	"shanhu.io/misc/errcode"
)

// download fetches a file into the build root, and checks its sha256
// checksum. Packaging often needs a pinned tool or runtime, such as
// appimagetool or a redistributable installer.
//
//	download(ctx, url, output, checksum)
//
// checksum is "sha256:" followed by the hex digest.
type download struct {
	client *http.Client
}

func (d *download) Name() string { return "download" }

func (d *download) httpClient() *http.Client {
	if d.client == nil {
		return http.DefaultClient
	}
	return d.client
}

func (d *download) Produce(c Context, args *Args) (starlark.Value, error) {
	rawURL, err := args.String("url")
	if err != nil {
		return nil, err
	}
	output, err := args.String("output")
	if err != nil {
		return nil, err
	}
	checksum, err := args.String("checksum")
	if err != nil {
		return nil, err
	}
	if err := args.Done(); err != nil {
		return nil, err
	}

	const sha256Prefix = "sha256:"
	if !strings.HasPrefix(checksum, sha256Prefix) {
		return nil, errcode.InvalidArgf("checksum is not sha256")
	}
	want := strings.TrimPrefix(checksum, sha256Prefix)

	rawURL, err = c.Subst(rawURL)
	if err != nil {
		return nil, errcode.Annotate(err, "expand url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errcode.Annotate(err, "invalid url")
	}

	out, err := c.Out(output)
	if err != nil {
		return nil, errcode.Annotate(err, "prepare out")
	}

	c.Logf("download %s", u)
	req := &http.Request{
		Method: http.MethodGet,
		URL:    u,
	}
	resp, err := d.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errcode.Internalf("download got %s", resp.Status)
	}

	sum, err := downloadToFile(out, resp.Body)
	if err != nil {
		return nil, errcode.Annotate(err, "save")
	}
	if sum != want {
		os.Remove(out)
		return nil, errcode.Internalf(
			"incorrect sha256, want %s, got %s", want, sum,
		)
	}
	return &ResolvedTarget{OutputPath: out}, nil
}

func downloadToFile(f string, r io.Reader) (string, error) {
	out, err := os.Create(f)
	if err != nil {
		return "", errcode.Annotate(err, "create")
	}
	defer out.Close()

	h := sha256.New()
	mw := io.MultiWriter(h, out)

	if _, err := io.Copy(mw, r); err != nil {
		return "", errcode.Annotate(err, "download")
	}

	if err := out.Sync(); err != nil {
		return "", errcode.Annotate(err, "filesystem sync")
	}

	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:]), nil
}
