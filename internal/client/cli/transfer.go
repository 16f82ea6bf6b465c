package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/p1nk23/TgBot/internal/api"
	"github.com/p1nk23/TgBot/internal/filex"
	"github.com/p1nk23/TgBot/internal/netx"
)

// Test seams.
var (
	uploadFn   = netx.UploadToPresignedURL
	downloadFn = netx.DownloadFromPresignedURL
	readFileFn = os.ReadFile
)

const downloadsDir = "downloads"

// view asks the server for an attachment and, when save is set and the
// server returned a link, stores the file under ./downloads.
func (a *App) view(ctx context.Context, id int64, save bool) {
	resp, ok := a.send(ctx, &api.CommandRequest{Intent: "view-attachment", NodeID: id})
	if !ok || !save || resp.Attachment == nil {
		return
	}
	if resp.Attachment.URL == "" {
		printlnFn("The server returned no download link.")
		return
	}

	dir, err := filex.EnsureSubdDir(downloadsDir)
	if err != nil {
		printError(err)
		return
	}
	f, err := filex.CreateUnique(dir, filex.NameFromReference(resp.Attachment.MediaReference))
	if err != nil {
		printError(err)
		return
	}
	defer f.Close()

	n, err := downloadFn(ctx, resp.Attachment.URL, f)
	if err != nil {
		_ = os.Remove(f.Name())
		printError(err)
		return
	}
	printlnFn(fmt.Sprintf("Saved %d bytes to %s", n, f.Name()))
}

// upload requests an upload slot, PUTs the file there and saves it as a
// leaf of the current folder.
func (a *App) upload(ctx context.Context, kind, path, caption string) {
	data, err := readFileFn(path)
	if err != nil {
		printError(err)
		return
	}

	resp, ok := a.send(ctx, &api.CommandRequest{Intent: "upload-slot", Kind: kind})
	if !ok || resp.Upload == nil {
		return
	}

	if err := uploadFn(ctx, resp.Upload.URL, data); err != nil {
		printError(err)
		return
	}

	a.send(ctx, &api.CommandRequest{
		Intent:         "add-attachment",
		Kind:           resp.Upload.Kind,
		MediaReference: resp.Upload.MediaReference,
		Caption:        caption,
	})
}
