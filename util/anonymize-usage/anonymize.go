// Anonymize-usage replaces user names in cluster usage logs so that the logs can be checked in as
// test data.  Every user gets a stable pseudonym uc-10000, uc-10001, ... in order of first
// appearance across all the files named on the command line, so a user is the same pseudonym in
// every file of one run.  Only the user column of record lines is touched.
//
// Usage: anonymize-usage [-o] file ...
//
// If -o is true then the input files are renamed to .bak files and the output files replace the
// input files.  Otherwise, the output is written to .new files.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/MatthewBL/hpc-api/util/formats/usage"
)

var (
	overwrite = flag.Bool("o", false, "Overwrite inputs")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options] file ...\n", os.Args[0])
		fmt.Fprintf(flag.CommandLine.Output(), "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	a := newAnonymizer()
	for _, fn := range flag.Args() {
		bs, err := os.ReadFile(fn)
		check(err)
		txt := a.anonymize(string(bs))
		if *overwrite {
			check(os.Rename(fn, fn+".bak"))
			check(os.WriteFile(fn, []byte(txt), 0666))
		} else {
			check(os.WriteFile(fn+".new", []byte(txt), 0666))
		}
	}
}

type anonymizer struct {
	users     map[string]string
	nameCount int
}

func newAnonymizer() *anonymizer {
	return &anonymizer{
		users:     make(map[string]string),
		nameCount: 10000,
	}
}

func (a *anonymizer) pseudonym(user string) string {
	if a.users[user] == "" {
		a.users[user] = fmt.Sprintf("uc-%d", a.nameCount)
		a.nameCount++
	}
	return a.users[user]
}

func (a *anonymizer) anonymize(txt string) string {
	lines := strings.SplitAfter(txt, "\n")
	for i, l := range lines {
		if usage.ClassifyLine(l) != usage.LineRecord {
			continue
		}
		rec, ok := usage.ParseRecordLine(l)
		if !ok {
			continue
		}
		// The user is the first field after the job ID, so the first occurrence of the name past
		// the ID is the one to replace.
		ix := strings.Index(l, rec.JobID) + len(rec.JobID)
		iy := ix + strings.Index(l[ix:], rec.User)
		lines[i] = l[:iy] + a.pseudonym(rec.User) + l[iy+len(rec.User):]
	}
	return strings.Join(lines, "")
}

func check(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
