package filesystem

import (
	"archive/tar"
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charlievieth/fastwalk"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
	"github.com/wardenfs/warden/internal/sandbox"
	"github.com/wardenfs/warden/internal/shared/types"
)

// ArchivesOps handles archive operations (zip, tar, tar.gz, tar.zst)
type ArchivesOps struct {
	*FilesystemOps
}

// GetTools returns archive operation tool definitions
func (a *ArchivesOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "fs.archive",
			Name:        "Create Archive",
			Description: "Archive a directory (zip, tar, tar.gz, tar.zst)",
			Parameters: []types.Parameter{
				{Name: "source", Type: "string", Description: "Source directory", Required: true},
				{Name: "output", Type: "string", Description: "Output archive path", Required: true},
				{Name: "format", Type: "string", Description: "Format (zip/tar/tar.gz/tar.zst, default by extension)", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "fs.extract",
			Name:        "Extract Archive",
			Description: "Extract an archive (auto-detect format)",
			Parameters: []types.Parameter{
				{Name: "archive", Type: "string", Description: "Archive file path", Required: true},
				{Name: "destination", Type: "string", Description: "Destination directory", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "fs.archive.list",
			Name:        "List Archive",
			Description: "List archive contents without extracting",
			Parameters: []types.Parameter{
				{Name: "archive", Type: "string", Description: "Archive file path", Required: true},
			},
			Returns: "array",
		},
	}
}

// Archive creates an archive from a directory
func (a *ArchivesOps) Archive(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	source, ok := params["source"].(string)
	if !ok || source == "" {
		return Failure("source parameter required")
	}
	output, ok := params["output"].(string)
	if !ok || output == "" {
		return Failure("output parameter required")
	}

	format, _ := params["format"].(string)
	if format == "" {
		format = detectFormat(output)
	}
	if format == "" {
		return Failure(fmt.Sprintf("unsupported archive format: %s", output))
	}

	srcCanon, denied := a.authorize(source, sandbox.ModeRead)
	if denied != nil {
		return denied, nil
	}
	outCanon, denied := a.authorize(output, sandbox.ModeWrite)
	if denied != nil {
		return denied, nil
	}

	if format == "zip" {
		return a.zipCreate(ctx, srcCanon, outCanon)
	}
	return a.tarCreate(ctx, srcCanon, outCanon, format)
}

func (a *ArchivesOps) zipCreate(ctx context.Context, source, output string) (*types.Result, error) {
	zipFile, err := os.Create(output)
	if err != nil {
		return Failure(fmt.Sprintf("create failed: %s", output))
	}
	defer zipFile.Close()

	zipWriter := zip.NewWriter(zipFile)
	defer zipWriter.Close()

	fileCount := 0
	totalSize := int64(0)
	// zip.Writer is not safe for concurrent use, walk serially.
	conf := fastwalk.Config{Follow: false, NumWorkers: 1}

	err = fastwalk.Walk(&conf, source, func(path string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil || path == source {
			return nil
		}

		relPath, _ := filepath.Rel(source, path)

		if d.IsDir() {
			_, err := zipWriter.Create(relPath + "/")
			return err
		}

		writer, err := zipWriter.Create(relPath)
		if err != nil {
			return err
		}

		file, err := os.Open(path)
		if err != nil {
			return nil
		}
		defer file.Close()

		size, _ := io.Copy(writer, file)
		totalSize += size
		fileCount++

		return nil
	})

	if err != nil {
		return Failure("archive creation failed")
	}

	return Success(map[string]interface{}{
		"created":    true,
		"output":     output,
		"format":     "zip",
		"files":      fileCount,
		"total_size": totalSize,
	})
}

func (a *ArchivesOps) tarCreate(ctx context.Context, source, output, format string) (*types.Result, error) {
	outFile, err := os.Create(output)
	if err != nil {
		return Failure(fmt.Sprintf("create failed: %s", output))
	}
	defer outFile.Close()

	var tarWriter *tar.Writer

	switch format {
	case "tar.gz":
		gzWriter := gzip.NewWriter(outFile)
		defer gzWriter.Close()
		tarWriter = tar.NewWriter(gzWriter)
	case "tar.zst":
		zstdWriter, err := zstd.NewWriter(outFile)
		if err != nil {
			return Failure("archive creation failed")
		}
		defer zstdWriter.Close()
		tarWriter = tar.NewWriter(zstdWriter)
	default:
		tarWriter = tar.NewWriter(outFile)
	}
	defer tarWriter.Close()

	fileCount := 0
	totalSize := int64(0)
	// tar.Writer is not safe for concurrent use, walk serially.
	conf := fastwalk.Config{Follow: false, NumWorkers: 1}

	err = fastwalk.Walk(&conf, source, func(path string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil || path == source {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(source, path)

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return nil
		}
		header.Name = relPath

		if err := tarWriter.WriteHeader(header); err != nil {
			return err
		}

		if !d.IsDir() {
			file, err := os.Open(path)
			if err != nil {
				return nil
			}
			defer file.Close()

			size, _ := io.Copy(tarWriter, file)
			totalSize += size
			fileCount++
		}

		return nil
	})

	if err != nil {
		return Failure("archive creation failed")
	}

	return Success(map[string]interface{}{
		"created":    true,
		"output":     output,
		"format":     format,
		"files":      fileCount,
		"total_size": totalSize,
	})
}

// Extract extracts an archive. Every entry's destination path is cleared
// through the gate before anything is written, so a crafted entry name
// cannot place files outside the sandbox.
func (a *ArchivesOps) Extract(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	archive, ok := params["archive"].(string)
	if !ok || archive == "" {
		return Failure("archive parameter required")
	}
	destination, ok := params["destination"].(string)
	if !ok || destination == "" {
		return Failure("destination parameter required")
	}

	arcCanon, denied := a.authorize(archive, sandbox.ModeRead)
	if denied != nil {
		return denied, nil
	}
	destCanon, denied := a.authorize(destination, sandbox.ModeWrite)
	if denied != nil {
		return denied, nil
	}

	format := detectFormat(arcCanon)
	switch format {
	case "zip":
		return a.zipExtract(ctx, arcCanon, destCanon)
	case "tar", "tar.gz", "tar.zst":
		return a.tarExtract(ctx, arcCanon, destCanon, format)
	default:
		return Failure(fmt.Sprintf("unsupported archive format: %s", archive))
	}
}

// entryDest authorizes a single archive entry's target path. Returns
// "" when the entry would land outside the sandbox.
func (a *ArchivesOps) entryDest(dest, name string) string {
	verdict := a.Gate.Authorize(filepath.Join(dest, name), sandbox.ModeWrite)
	if !verdict.Allowed {
		if a.Log != nil {
			a.Log.Warn("archive entry rejected",
				zap.String("entry", name),
				zap.String("reason", verdict.Reason.String()))
		}
		return ""
	}
	return verdict.Path
}

func (a *ArchivesOps) zipExtract(ctx context.Context, archive, dest string) (*types.Result, error) {
	reader, err := zip.OpenReader(archive)
	if err != nil {
		return Failure(fmt.Sprintf("open failed: %s", archive))
	}
	defer reader.Close()

	fileCount := 0
	skipped := 0

	for _, file := range reader.File {
		select {
		case <-ctx.Done():
			return Failure("extraction cancelled")
		default:
		}

		destPath := a.entryDest(dest, file.Name)
		if destPath == "" {
			skipped++
			continue
		}

		if file.FileInfo().IsDir() {
			os.MkdirAll(destPath, 0o755)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			continue
		}

		srcFile, err := file.Open()
		if err != nil {
			continue
		}

		dstFile, err := os.Create(destPath)
		if err != nil {
			srcFile.Close()
			continue
		}

		_, err = io.Copy(dstFile, srcFile)
		srcFile.Close()
		dstFile.Close()

		if err == nil {
			fileCount++
		}
	}

	return Success(map[string]interface{}{
		"extracted":   true,
		"destination": dest,
		"files":       fileCount,
		"skipped":     skipped,
	})
}

func (a *ArchivesOps) tarExtract(ctx context.Context, archive, dest, format string) (*types.Result, error) {
	file, err := os.Open(archive)
	if err != nil {
		return Failure(fmt.Sprintf("open failed: %s", archive))
	}
	defer file.Close()

	tarReader, closer, err := tarReaderFor(file, format)
	if err != nil {
		return Failure(fmt.Sprintf("open failed: %s", archive))
	}
	if closer != nil {
		defer closer()
	}

	fileCount := 0
	skipped := 0

	for {
		select {
		case <-ctx.Done():
			return Failure("extraction cancelled")
		default:
		}

		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Next latches its error, so retrying would loop forever.
			return Failure("corrupt archive")
		}

		destPath := a.entryDest(dest, header.Name)
		if destPath == "" {
			skipped++
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			os.MkdirAll(destPath, 0o755)
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
				continue
			}

			outFile, err := os.Create(destPath)
			if err != nil {
				continue
			}

			_, err = io.Copy(outFile, tarReader)
			outFile.Close()

			if err == nil {
				fileCount++
			}
		}
	}

	return Success(map[string]interface{}{
		"extracted":   true,
		"destination": dest,
		"files":       fileCount,
		"skipped":     skipped,
	})
}

// List lists archive contents
func (a *ArchivesOps) List(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	archive, ok := params["archive"].(string)
	if !ok || archive == "" {
		return Failure("archive parameter required")
	}

	arcCanon, denied := a.authorize(archive, sandbox.ModeRead)
	if denied != nil {
		return denied, nil
	}

	format := detectFormat(arcCanon)
	if format == "zip" {
		reader, err := zip.OpenReader(arcCanon)
		if err != nil {
			return Failure(fmt.Sprintf("open failed: %s", archive))
		}
		defer reader.Close()

		entries := []map[string]interface{}{}
		for _, f := range reader.File {
			info := f.FileInfo()
			entries = append(entries, map[string]interface{}{
				"name":     f.Name,
				"size":     info.Size(),
				"modified": info.ModTime().Unix(),
				"is_dir":   info.IsDir(),
			})
		}
		return Success(map[string]interface{}{"archive": arcCanon, "entries": entries, "count": len(entries)})
	}

	file, err := os.Open(arcCanon)
	if err != nil {
		return Failure(fmt.Sprintf("open failed: %s", archive))
	}
	defer file.Close()

	tarReader, closer, err := tarReaderFor(file, format)
	if err != nil {
		return Failure(fmt.Sprintf("open failed: %s", archive))
	}
	if closer != nil {
		defer closer()
	}

	entries := []map[string]interface{}{}
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Next latches its error, so retrying would loop forever.
			return Failure("corrupt archive")
		}

		entries = append(entries, map[string]interface{}{
			"name":     header.Name,
			"size":     header.Size,
			"modified": header.ModTime.Unix(),
			"is_dir":   header.Typeflag == tar.TypeDir,
		})
	}

	return Success(map[string]interface{}{"archive": arcCanon, "entries": entries, "count": len(entries)})
}

// detectFormat maps a filename to an archive format
func detectFormat(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return "zip"
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return "tar.gz"
	case strings.HasSuffix(lower, ".tar.zst"):
		return "tar.zst"
	case strings.HasSuffix(lower, ".tar"):
		return "tar"
	default:
		return ""
	}
}

// tarReaderFor wraps a file in the decompressor the format needs
func tarReaderFor(file *os.File, format string) (*tar.Reader, func(), error) {
	switch format {
	case "tar.gz":
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			return nil, nil, err
		}
		return tar.NewReader(gzReader), func() { gzReader.Close() }, nil
	case "tar.zst":
		zstdReader, err := zstd.NewReader(file)
		if err != nil {
			return nil, nil, err
		}
		return tar.NewReader(zstdReader), zstdReader.Close, nil
	default:
		return tar.NewReader(file), nil, nil
	}
}
