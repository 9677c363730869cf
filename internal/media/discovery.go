package media

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/text/cases"
)

// DCIMDir is the camera-standard directory that marks a card.
const DCIMDir = "DCIM"

// ExtensionSet lists recognized capture extensions, case-folded and without
// the leading dot.
var ExtensionSet = map[string]struct{}{
	// stills
	"jpg": {}, "jpeg": {}, "tif": {}, "tiff": {}, "heic": {}, "dng": {},
	"crw": {}, "cr2": {}, "cr3": {}, "rw2": {}, "orf": {}, "arw": {},
	"nef": {}, "x3f": {}, "raf": {},
	// video
	"avi": {}, "mov": {}, "wmv": {}, "mp4": {},
}

// IsCaptureFile reports whether name carries a recognized extension.
func IsCaptureFile(name string) bool {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return false
	}
	_, ok := ExtensionSet[cases.Fold().String(ext)]
	return ok
}

// Card is one mounted card and its capture files.
type Card struct {
	Root  string
	Name  string
	Files []string
}

// ListCardMounts returns the sorted card roots under mediaRoot/user, or under
// mediaRoot itself when user is empty. A missing root yields no cards.
func ListCardMounts(fsys afero.Fs, mediaRoot, user string) ([]string, error) {
	root := mediaRoot
	if strings.TrimSpace(user) != "" {
		root = filepath.Join(mediaRoot, user)
	}
	entries, err := afero.ReadDir(fsys, root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list media root %s: %w", root, err)
	}
	var cards []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(root, entry.Name())
		ok, err := afero.DirExists(fsys, filepath.Join(candidate, DCIMDir))
		if err != nil {
			return nil, fmt.Errorf("inspect %s: %w", candidate, err)
		}
		if ok {
			cards = append(cards, candidate)
		}
	}
	return cards, nil
}

// ListCaptureFiles returns the recognized files in cardRoot/DCIM/*/, sorted
// and without duplicates.
func ListCaptureFiles(fsys afero.Fs, cardRoot string) ([]string, error) {
	dcim := filepath.Join(cardRoot, DCIMDir)
	folders, err := afero.ReadDir(fsys, dcim)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dcim, err)
	}
	seen := make(map[string]struct{})
	var files []string
	for _, folderInfo := range folders {
		if !folderInfo.IsDir() {
			continue
		}
		dir := filepath.Join(dcim, folderInfo.Name())
		entries, err := afero.ReadDir(fsys, dir)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", dir, err)
		}
		for _, entry := range entries {
			if !entry.Mode().IsRegular() || !IsCaptureFile(entry.Name()) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if _, dup := seen[path]; dup {
				continue
			}
			seen[path] = struct{}{}
			files = append(files, path)
		}
	}
	slices.Sort(files)
	return files, nil
}

// Discover lists every card under mediaRoot together with its capture files.
func Discover(fsys afero.Fs, mediaRoot, user string) ([]Card, error) {
	roots, err := ListCardMounts(fsys, mediaRoot, user)
	if err != nil {
		return nil, err
	}
	cards := make([]Card, 0, len(roots))
	for _, root := range roots {
		files, err := ListCaptureFiles(fsys, root)
		if err != nil {
			return nil, err
		}
		cards = append(cards, Card{Root: root, Name: filepath.Base(root), Files: files})
	}
	return cards, nil
}

// AllFiles concatenates the files of every card in card order.
func AllFiles(cards []Card) []string {
	var files []string
	for _, card := range cards {
		files = append(files, card.Files...)
	}
	return files
}
