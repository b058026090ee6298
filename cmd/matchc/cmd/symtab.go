package cmd

import (
	"github.com/ovnmatch/matchexpr/internal/fields"
	"github.com/ovnmatch/matchexpr/internal/symbols"
)

// builtinSymtab returns a reference symbol table covering the common
// Ethernet/IP/TCP/UDP fields, for the CLI to compile expressions against
// when no project-specific registry is wired in. A production deployment
// would build its table from the real field-metadata registry instead
// (spec.md §1 places that registry out of scope).
func builtinSymtab() *symbols.Table {
	tab := symbols.NewTable()

	mustField := func(name string, width int, maskable bool, prereqs string, mustCrossproduct bool) {
		if _, err := tab.AddField(name, fields.NewIntDescriptor(name, width, maskable), prereqs, mustCrossproduct); err != nil {
			panic(err)
		}
	}
	mustPredicate := func(name, expansion string) {
		if _, err := tab.AddPredicate(name, expansion); err != nil {
			panic(err)
		}
	}
	mustSubfield := func(name, parent string, lo, hi int) {
		if _, err := tab.AddSubfield(name, parent, lo, hi, ""); err != nil {
			panic(err)
		}
	}

	mustField("eth.type", 16, true, "", true)
	mustField("eth.src", 48, true, "", false)
	mustField("eth.dst", 48, true, "", false)
	mustField("vlan.tci", 16, true, "", false)
	mustSubfield("vlan.vid", "vlan.tci", 0, 11)
	mustSubfield("vlan.pcp", "vlan.tci", 13, 15)

	mustPredicate("ip4", "eth.type == 0x800")
	mustPredicate("ip6", "eth.type == 0x86dd")
	mustPredicate("ip", "ip4 || ip6")

	mustField("ip.proto", 8, true, "ip", false)
	mustField("ip4.src", 32, true, "ip4", false)
	mustField("ip4.dst", 32, true, "ip4", false)
	mustField("ip6.src", 128, true, "ip6", false)
	mustField("ip6.dst", 128, true, "ip6", false)

	mustPredicate("tcp", "ip && ip.proto == 6")
	mustPredicate("udp", "ip && ip.proto == 17")
	mustPredicate("icmp", "ip4 && ip.proto == 1")

	mustField("tcp.src", 16, true, "tcp", false)
	mustField("tcp.dst", 16, true, "tcp", false)
	mustField("udp.src", 16, true, "udp", false)
	mustField("udp.dst", 16, true, "udp", false)

	return tab
}
