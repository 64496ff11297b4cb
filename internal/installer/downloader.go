package installer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/codeclysm/extract/v4"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/cypher256/java-extension-pack-sub000/internal/java"
)

// Installer downloads JDKs from a Distributor into engine-managed
// directories.
type Installer struct {
	dist      Distributor
	client    *retryablehttp.Client
	validator *java.Validator
	fixer     *java.Fixer
	progress  Progress
	log       zerolog.Logger
}

// New creates an Installer
func New(dist Distributor, client *retryablehttp.Client, validator *java.Validator, log zerolog.Logger) *Installer {
	return &Installer{
		dist:      dist,
		client:    client,
		validator: validator,
		fixer:     java.NewFixer(validator),
		progress:  nopProgress{},
		log:       log,
	}
}

// SetProgress sets where download progress is reported
func (i *Installer) SetProgress(p Progress) {
	if p == nil {
		p = nopProgress{}
	}
	i.progress = p
}

// Distributor returns the release source
func (i *Installer) Distributor() Distributor {
	return i.dist
}

// Latest returns the full version of the newest release of major
func (i *Installer) Latest(ctx context.Context, major int) (string, error) {
	info, err := i.dist.Asset(ctx, major)
	if err != nil {
		return "", &DownloadError{Major: major, Phase: PhaseResolve, Err: err}
	}
	return info.Version, nil
}

// FetchAndUnpack downloads the newest release of major and installs it as
// the JDK home targetDir, replacing what was there. The archive is unpacked
// next to targetDir and only moved into place once it is a valid JDK, so a
// failure leaves targetDir untouched.
func (i *Installer) FetchAndUnpack(ctx context.Context, major int, targetDir string) (string, error) {
	log := i.log.With().Str("method", "FetchAndUnpack").Int("major", major).Logger()
	fail := func(phase Phase, err error) (string, error) {
		return "", &DownloadError{Major: major, Phase: phase, Err: err}
	}

	info, err := i.dist.Asset(ctx, major)
	if err != nil {
		return fail(PhaseResolve, err)
	}

	parent := filepath.Dir(targetDir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return fail(PhaseInstall, err)
	}
	// Same parent as targetDir so the final rename stays on one file system
	work, err := os.MkdirTemp(parent, "."+filepath.Base(targetDir)+"-")
	if err != nil {
		return fail(PhaseInstall, err)
	}
	defer os.RemoveAll(work)

	archive := filepath.Join(work, archiveName(info))
	log.Info().Str("url", info.URL).Msg("downloading")
	if err := i.download(ctx, info, archive); err != nil {
		return fail(PhaseDownload, err)
	}

	if info.Checksum != "" {
		if err := VerifyChecksum(archive, info.Checksum); err != nil {
			return fail(PhaseVerify, err)
		}
	}

	unpacked := filepath.Join(work, "jdk")
	if err := ExtractArchive(ctx, archive, unpacked); err != nil {
		return fail(PhaseExtract, err)
	}

	home := i.fixer.FixPath(unpacked, "")
	if home == "" {
		return fail(PhaseValidate, fmt.Errorf("archive %s does not contain a JDK", info.FileName))
	}

	if err := swapDir(home, targetDir); err != nil {
		return fail(PhaseInstall, err)
	}
	log.Info().Str("path", targetDir).Str("version", info.Version).Msg("jdk installed")
	return info.Version, nil
}

// download writes the file at info.URL to destPath, reporting progress
func (i *Installer) download(ctx context.Context, info *DownloadInfo, destPath string) (err error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return err
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	totalSize := resp.ContentLength
	if totalSize <= 0 {
		totalSize = info.Size
	}

	i.progress.Start(fmt.Sprintf("Downloading %s", info.FileName), totalSize)
	defer func() { i.progress.Finish(err) }()

	written, err := io.Copy(io.MultiWriter(out, progressWriter{i.progress}), resp.Body)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if resp.ContentLength > 0 && written != resp.ContentLength {
		return fmt.Errorf("incomplete download: got %d bytes, expected %d", written, resp.ContentLength)
	}
	return out.Close()
}

// VerifyChecksum verifies the SHA256 checksum of a file
func VerifyChecksum(filePath string, expectedChecksum string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return fmt.Errorf("failed to calculate checksum: %w", err)
	}

	actualChecksum := hex.EncodeToString(hasher.Sum(nil))
	if !strings.EqualFold(actualChecksum, expectedChecksum) {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expectedChecksum, actualChecksum)
	}
	return nil
}

// ExtractArchive unpacks a .zip or .tar.gz JDK archive into destDir,
// dropping the archive's top-level directory.
func ExtractArchive(ctx context.Context, archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return err
	}
	if strings.HasSuffix(strings.ToLower(archivePath), ".zip") {
		return extract.Zip(ctx, f, destDir, stripTopDir)
	}
	return extract.Gz(ctx, f, destDir, stripTopDir)
}

// stripTopDir maps "jdk-21.0.2+13/bin/java" to "bin/java"
func stripTopDir(name string) string {
	name = strings.TrimPrefix(filepath.ToSlash(name), "./")
	if i := strings.Index(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// swapDir moves src to dst. An existing dst is kept aside and restored if
// the move fails.
func swapDir(src, dst string) error {
	backup := ""
	if _, err := os.Lstat(dst); err == nil {
		backup = dst + ".old"
		if err := os.RemoveAll(backup); err != nil {
			return err
		}
		if err := os.Rename(dst, backup); err != nil {
			return fmt.Errorf("failed to move old installation aside: %w", err)
		}
	}

	if err := os.Rename(src, dst); err != nil {
		if backup != "" {
			if rerr := os.Rename(backup, dst); rerr != nil {
				return fmt.Errorf("failed to move JDK to %s: %w (restore failed: %v)", dst, err, rerr)
			}
		}
		return fmt.Errorf("failed to move JDK to %s: %w", dst, err)
	}

	if backup != "" {
		os.RemoveAll(backup)
	}
	return nil
}

// archiveName returns a safe local file name for the downloaded archive
func archiveName(info *DownloadInfo) string {
	name := filepath.Base(filepath.FromSlash(info.FileName))
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = filepath.Base(info.URL)
	}
	return name
}
