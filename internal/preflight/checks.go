package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"chronoclean/internal/services"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckReadable verifies that a source root exists and can be listed.
func CheckReadable(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
}

// CheckWritableTarget verifies that path, or its nearest existing ancestor
// when it has not been created yet, is a writable directory.
func CheckWritableTarget(name, path string) Result {
	existing, err := nearestExisting(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	check := CheckDirectoryAccess(name, existing)
	if check.Passed && existing != filepath.Clean(path) {
		check.Detail = fmt.Sprintf("%s (will be created under %s)", path, existing)
	}
	return check
}

// CheckFreeSpace reports whether the filesystem holding path has at least
// need bytes available.
func CheckFreeSpace(name, path string, need int64) Result {
	free, err := FreeBytes(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	detail := fmt.Sprintf("%s free on %s", humanize.IBytes(free), path)
	if need > 0 {
		detail = fmt.Sprintf("%s, %s needed", detail, humanize.IBytes(uint64(need)))
		if free < uint64(need) {
			return Result{Name: name, Detail: detail}
		}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// FreeBytes returns the bytes available to unprivileged users on the
// filesystem holding path, walking up to the nearest existing directory.
func FreeBytes(path string) (uint64, error) {
	existing, err := nearestExisting(path)
	if err != nil {
		return 0, err
	}
	var stat unix.Statfs_t
	if err := unix.Statfs(existing, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", existing, err)
	}
	return uint64(stat.Bavail) * uint64(stat.Bsize), nil
}

// EnsureFreeSpace fails with a configuration error when the destination
// cannot hold need bytes.
func EnsureFreeSpace(path string, need int64) error {
	if need <= 0 {
		return nil
	}
	free, err := FreeBytes(path)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "preflight", "free space", path, err)
	}
	if free < uint64(need) {
		return services.Wrap(services.ErrConfiguration, "preflight", "free space",
			fmt.Sprintf("%s has %s free but %s is needed", path, humanize.IBytes(free), humanize.IBytes(uint64(need))), nil)
	}
	return nil
}

func nearestExisting(path string) (string, error) {
	current, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	for {
		_, err := os.Stat(current)
		if err == nil {
			return current, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", err
		}
		current = parent
	}
}
