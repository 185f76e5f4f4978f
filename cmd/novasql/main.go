// Command novasql is a one-shot CLI over the heap-file storage engine:
// create a table, insert a row, run a filtered select into a result
// table, or delete matching rows. It follows the teacher's
// flag-plus-signal.NotifyContext wiring style from cmd/server/main.go,
// adapted to a single request per process instead of a long-lived TCP
// server (the SQL wire protocol and session executor are out of scope
// here; see DESIGN.md).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/student/novasql-engine/internal"
	"github.com/student/novasql-engine/internal/catalog"
	"github.com/student/novasql-engine/internal/engine"
	"github.com/student/novasql-engine/internal/heap"
	"github.com/student/novasql-engine/internal/query"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "novasql.yaml", "path to novasql yaml config")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		log.Fatalf("usage: novasql -config <path> <create-table|insert|select|delete> ...")
	}

	cfg, err := internal.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := engine.Open(cfg.Storage.DataDir, cfg.Storage.BufferPoolPages, cfg.Storage.CatalogCacheCap)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("close database", "err", err)
		}
	}()

	if err := dispatch(ctx, db, args[0], args[1:]); err != nil {
		log.Fatalf("%s: %v", args[0], err)
	}
}

func dispatch(ctx context.Context, db *engine.Database, cmd string, rest []string) error {
	switch cmd {
	case "create-table":
		return createTable(db, rest)
	case "insert":
		return insert(db, rest)
	case "select":
		return runSelect(db, rest)
	case "delete":
		return runDelete(db, rest)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// createTable parses: <name> <attr:type[:len]> ...
// type is one of int, float, string; string takes a length, as name:string:n.
func createTable(db *engine.Database, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: create-table <name> <attr:type[:len]> ...")
	}
	name := args[0]
	attrs := make([]catalog.AttrDesc, 0, len(args)-1)
	for _, spec := range args[1:] {
		parts := strings.Split(spec, ":")
		if len(parts) < 2 {
			return fmt.Errorf("bad attribute spec %q", spec)
		}
		attrName, typ := parts[0], parts[1]
		var dtype heap.Datatype
		var length int32
		switch typ {
		case "int":
			dtype, length = heap.DTInteger, 4
		case "float":
			dtype, length = heap.DTFloat, 4
		case "string":
			if len(parts) < 3 {
				return fmt.Errorf("string attribute %q needs a length", attrName)
			}
			n, err := strconv.Atoi(parts[2])
			if err != nil {
				return err
			}
			dtype, length = heap.DTString, int32(n)
		default:
			return fmt.Errorf("unknown attribute type %q", typ)
		}
		attrs = append(attrs, catalog.AttrDesc{AttrName: attrName, AttrType: dtype, AttrLen: length})
	}
	return db.CreateTable(name, attrs)
}

func insert(db *engine.Database, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: insert <table> <field> ...")
	}
	table := args[0]
	attrs, st := db.Cat.GetRelAttrs(table)
	if st != 0 {
		return st
	}
	if len(args)-1 != len(attrs) {
		return fmt.Errorf("table %s expects %d fields, got %d", table, len(attrs), len(args)-1)
	}
	fields := make([][]byte, len(attrs))
	for i, a := range attrs {
		b, err := encodeField(a, args[i+1])
		if err != nil {
			return err
		}
		fields[i] = b
	}
	rid, st := db.Query.Insert(table, fields)
	if st != 0 {
		return st
	}
	fmt.Printf("inserted rid=(%d,%d)\n", rid.PageNo, rid.SlotNo)
	return nil
}

func encodeField(a catalog.AttrDesc, value string) ([]byte, error) {
	return query.EncodeFilterValue(a.AttrType, a.AttrLen, value)
}

func runSelect(db *engine.Database, args []string) error {
	fs := flag.NewFlagSet("select", flag.ExitOnError)
	into := fs.String("into", "", "result table name (must already exist)")
	project := fs.String("project", "", "comma-separated attribute names")
	filter := fs.String("filter", "", "attr:op:value, op one of lt,lte,eq,gte,gt,ne")
	if len(args) < 1 {
		return fmt.Errorf("usage: select <table> -into <result> -project a,b,c [-filter attr:op:value]")
	}
	table := args[0]
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if *into == "" || *project == "" {
		return fmt.Errorf("usage: select <table> -into <result> -project a,b,c [-filter attr:op:value]")
	}
	projections := strings.Split(*project, ",")

	attrName, op, value, err := parseFilter(*filter)
	if err != nil {
		return err
	}

	st := db.Query.Select(*into, table, projections, attrName, op, value)
	if st != 0 {
		return st
	}
	return nil
}

func runDelete(db *engine.Database, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	filter := fs.String("filter", "", "attr:op:value, required")
	if len(args) < 1 {
		return fmt.Errorf("usage: delete <table> -filter attr:op:value")
	}
	table := args[0]
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if *filter == "" {
		return fmt.Errorf("usage: delete <table> -filter attr:op:value")
	}
	attrName, op, value, err := parseFilter(*filter)
	if err != nil {
		return err
	}
	n, st := db.Query.Delete(table, attrName, op, value)
	if st != 0 {
		return st
	}
	fmt.Printf("deleted %d rows\n", n)
	return nil
}

func parseFilter(spec string) (attr string, op heap.Operator, value string, err error) {
	if spec == "" {
		return "", heap.OpEQ, "", nil
	}
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 {
		return "", 0, "", fmt.Errorf("bad filter %q, want attr:op:value", spec)
	}
	opTable := map[string]heap.Operator{
		"lt": heap.OpLT, "lte": heap.OpLTE, "eq": heap.OpEQ,
		"gte": heap.OpGTE, "gt": heap.OpGT, "ne": heap.OpNE,
	}
	o, ok := opTable[parts[1]]
	if !ok {
		return "", 0, "", fmt.Errorf("unknown operator %q", parts[1])
	}
	return parts[0], o, parts[2], nil
}
