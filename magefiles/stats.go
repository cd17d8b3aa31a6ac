// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Stats prints Go lines of code per package directory as one JSON record,
// split into production and test lines.
func Stats() error {
	type counts struct {
		Prod int `json:"prod"`
		Test int `json:"test"`
	}
	perDir := make(map[string]*counts)

	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			switch d.Name() {
			case "vendor", ".git", binaryDir, "magefiles", "_examples":
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		n, countErr := countLines(path)
		if countErr != nil {
			return nil
		}
		dir := filepath.Dir(path)
		if perDir[dir] == nil {
			perDir[dir] = &counts{}
		}
		if strings.HasSuffix(path, "_test.go") {
			perDir[dir].Test += n
		} else {
			perDir[dir].Prod += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	dirs := make([]string, 0, len(perDir))
	total := counts{}
	for dir, c := range perDir {
		dirs = append(dirs, dir)
		total.Prod += c.Prod
		total.Test += c.Test
	}
	sort.Strings(dirs)
	for _, dir := range dirs {
		fmt.Printf("%-28s %6d %6d\n", dir, perDir[dir].Prod, perDir[dir].Test)
	}

	line, err := json.Marshal(map[string]int{
		"go_loc_prod": total.Prod,
		"go_loc_test": total.Test,
		"go_loc":      total.Prod + total.Test,
	})
	if err != nil {
		return err
	}
	fmt.Println(string(line))
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
