package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
)

// inspect dumps the records stored under a key prefix, e.g. conv: or msg:.
func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	prefix := flag.String("prefix", "conv:", "Prefix to scan")
	width := flag.Int("width", 80, "Maximum width of the value column")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Value"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			table.Append([]string{string(item.KeyCopy(nil)), render(value, *width)})
			count++
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
	fmt.Printf("%d record(s) under %q\n", count, *prefix)
}

// render compacts JSON records; index entries hold raw keys and are shown as is.
func render(value []byte, width int) string {
	var out bytes.Buffer
	text := string(value)
	if json.Compact(&out, value) == nil {
		text = out.String()
	}
	text = strings.ReplaceAll(text, "\n", " ")
	if width > 3 && len(text) > width {
		text = text[:width-3] + "..."
	}
	return text
}
