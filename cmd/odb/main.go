// Command odb is an operator CLI over the object store: install a schema,
// create/inspect/mutate objects, dump an index, and run store-maintenance
// migrations. State lives in an in-memory kvkit/memkv store snapshotted
// to/from a local file between invocations (see --store), since a
// persistent on-disk KV engine is out of this module's scope.
package main

import (
	"os"

	"github.com/ledgerwatch/odb/cmd/odb/commands"
	"github.com/ledgerwatch/odb/log"
)

func main() {
	if err := commands.Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
