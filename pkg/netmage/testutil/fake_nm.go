// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/stratastor/netpanel/internal/command"
)

// NMDevice is a device known to FakeNM
type NMDevice struct {
	Name   string
	Type   string // nmcli type string: ethernet, wifi, bridge, loopback
	State  string // nmcli state string: connected, disconnected, unavailable, unmanaged
	Active string // UUID of the active profile
	HWAddr string
	MTU    int

	// Live IPv4 state, replaced from the profile on activation
	Address string // CIDR
	Gateway string
	DNS     []string
	Domains []string

	// Networks visible to a wifi device
	Networks []NMNetwork
}

// NMNetwork is an access point visible to a wifi device
type NMNetwork struct {
	SSID     string
	Signal   int
	Security string
}

// NMProfile is a connection profile known to FakeNM. Properties use nmcli
// setting names, for example "ipv4.method".
type NMProfile struct {
	Name      string
	UUID      string
	Type      string // 802-3-ethernet, 802-11-wireless
	Timestamp int64
	Props     map[string]string
}

// FakeNM interprets the nmcli invocations issued by netmage against an
// in-memory model of NetworkManager. Exit codes and error texts follow
// nmcli: 10 for missing objects, 4 for failed activation, 2 for bad
// arguments.
type FakeNM struct {
	mu       sync.Mutex
	devices  []*NMDevice
	profiles []*NMProfile
	seq      int
	clock    int64

	// FailActivation makes `connection up` fail for these profile names
	FailActivation map[string]bool
	// FailDelete makes `connection delete` fail for these profile names
	FailDelete map[string]bool
	// Lingering keeps deleted profiles listed for this many
	// `connection show` calls, imitating a slow daemon
	Lingering int
	lingering map[string]int
	ghosts    []*NMProfile
}

// NewFakeNM returns an empty NetworkManager model
func NewFakeNM() *FakeNM {
	return &FakeNM{
		clock:          1700000000,
		FailActivation: map[string]bool{},
		FailDelete:     map[string]bool{},
		lingering:      map[string]int{},
	}
}

// AddDevice registers a device
func (nm *FakeNM) AddDevice(d *NMDevice) *NMDevice {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	if d.State == "" {
		d.State = "disconnected"
	}
	if d.MTU == 0 {
		d.MTU = 1500
	}
	nm.devices = append(nm.devices, d)
	return d
}

// AddProfile registers a profile. When active is set the profile is
// activated on the device named by connection.interface-name.
func (nm *FakeNM) AddProfile(name, typ string, props map[string]string, active bool) *NMProfile {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	p := nm.newProfile(name, typ, props)
	if active {
		if d := nm.device(p.Props["connection.interface-name"]); d != nil {
			nm.activate(p, d)
		}
	}
	return p
}

func (nm *FakeNM) newProfile(name, typ string, props map[string]string) *NMProfile {
	nm.seq++
	nm.clock++
	p := &NMProfile{
		Name:      name,
		UUID:      fmt.Sprintf("00000000-0000-4000-8000-%012d", nm.seq),
		Type:      typ,
		Timestamp: nm.clock,
		Props:     map[string]string{},
	}
	for k, v := range props {
		p.Props[k] = v
	}
	if _, ok := p.Props["ipv4.method"]; !ok {
		p.Props["ipv4.method"] = "auto"
	}
	nm.profiles = append(nm.profiles, p)
	return p
}

// Profiles returns copies of all profiles
func (nm *FakeNM) Profiles() []NMProfile {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	out := make([]NMProfile, 0, len(nm.profiles))
	for _, p := range nm.profiles {
		cp := *p
		cp.Props = map[string]string{}
		for k, v := range p.Props {
			cp.Props[k] = v
		}
		out = append(out, cp)
	}
	return out
}

// Profile returns a copy of the profile with name, if any
func (nm *FakeNM) Profile(name string) (NMProfile, bool) {
	for _, p := range nm.Profiles() {
		if p.Name == name {
			return p, true
		}
	}
	return NMProfile{}, false
}

// Device returns a copy of the named device
func (nm *FakeNM) Device(name string) (NMDevice, bool) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	if d := nm.device(name); d != nil {
		return *d, true
	}
	return NMDevice{}, false
}

// ActiveProfiles returns the names of profiles active on dev
func (nm *FakeNM) ActiveProfiles(dev string) []string {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	var out []string
	for _, p := range nm.profiles {
		if d := nm.activeDevice(p); d != nil && d.Name == dev {
			out = append(out, p.Name)
		}
	}
	return out
}

func (nm *FakeNM) device(name string) *NMDevice {
	for _, d := range nm.devices {
		if d.Name == name {
			return d
		}
	}
	return nil
}

func (nm *FakeNM) activeDevice(p *NMProfile) *NMDevice {
	for _, d := range nm.devices {
		if d.Active == p.UUID {
			return d
		}
	}
	return nil
}

func (nm *FakeNM) lookup(ref string) *NMProfile {
	for _, p := range nm.profiles {
		if p.UUID == ref {
			return p
		}
	}
	for _, p := range nm.profiles {
		if p.Name == ref {
			return p
		}
	}
	return nil
}

func (nm *FakeNM) activate(p *NMProfile, d *NMDevice) {
	d.Active = p.UUID
	d.State = "connected"
	nm.clock++
	p.Timestamp = nm.clock
	if p.Props["ipv4.method"] == "manual" {
		d.Address = p.Props["ipv4.addresses"]
		d.Gateway = p.Props["ipv4.gateway"]
	} else if d.Address == "" {
		d.Address = "192.168.100.50/24"
		d.Gateway = "192.168.100.1"
	}
	d.DNS = splitList(p.Props["ipv4.dns"])
	d.Domains = splitList(p.Props["ipv4.dns-search"])
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, ":", `\:`)
}

func terse(fields ...string) string {
	for i, f := range fields {
		fields[i] = escape(f)
	}
	return strings.Join(fields, ":")
}

func orDash(s string) string {
	if s == "" {
		return "--"
	}
	return s
}

// Handler returns a ScriptedRunner handler serving nmcli
func (nm *FakeNM) Handler() Handler {
	return func(ctx context.Context, name string, args []string) (*command.Result, error) {
		line := command.CommandLine(name, args...)
		resp := nm.exec(args)
		return Respond(line, resp)
	}
}

// Attach routes every nmcli invocation of r to nm
func (nm *FakeNM) Attach(r *ScriptedRunner) *ScriptedRunner {
	return r.Handle("nmcli", nm.Handler())
}

func (nm *FakeNM) exec(args []string) Response {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	var fields []string
	for len(args) > 0 && strings.HasPrefix(args[0], "-") {
		switch args[0] {
		case "-f", "--fields":
			if len(args) < 2 {
				return usage("missing fields")
			}
			fields = strings.Split(args[1], ",")
			args = args[2:]
		default:
			args = args[1:]
		}
	}
	if len(args) == 0 {
		return usage("missing object")
	}

	obj, rest := args[0], args[1:]
	verb := ""
	if len(rest) > 0 {
		verb, rest = rest[0], rest[1:]
	}

	switch {
	case obj == "general":
		return Response{Stdout: "running\n"}
	case obj == "device" && verb == "status":
		return nm.deviceStatus()
	case obj == "device" && verb == "show":
		return nm.deviceShow(fields, rest)
	case obj == "device" && verb == "wifi":
		return nm.wifiList(rest)
	case obj == "device" && verb == "connect":
		return nm.deviceConnect(rest)
	case obj == "device" && verb == "disconnect":
		return nm.deviceDisconnect(rest)
	case obj == "connection" && verb == "show":
		return nm.connectionShow(fields, rest)
	case obj == "connection" && verb == "add":
		return nm.connectionAdd(rest)
	case obj == "connection" && verb == "modify":
		return nm.connectionModify(rest)
	case obj == "connection" && verb == "delete":
		return nm.connectionDelete(rest)
	case obj == "connection" && verb == "up":
		return nm.connectionUp(rest)
	}
	return usage(fmt.Sprintf("unsupported invocation %q %q", obj, verb))
}

func usage(msg string) Response {
	return Response{ExitCode: 2, Stderr: "Error: " + msg + "\n"}
}

func noSuchConnection(ref string) Response {
	return Response{ExitCode: 10, Stderr: fmt.Sprintf("Error: unknown connection '%s'.\n", ref)}
}

func noSuchDevice(dev string) Response {
	return Response{ExitCode: 10, Stderr: fmt.Sprintf("Error: Device '%s' not found.\n", dev)}
}

func (nm *FakeNM) deviceStatus() Response {
	var b strings.Builder
	for _, d := range nm.devices {
		conn := ""
		if p := nm.lookup(d.Active); p != nil && d.Active != "" {
			conn = p.Name
		}
		b.WriteString(terse(d.Name, d.Type, d.State, orDash(conn)))
		b.WriteByte('\n')
	}
	return Response{Stdout: b.String()}
}

func (nm *FakeNM) deviceShow(fields, rest []string) Response {
	devices := nm.devices
	if len(rest) > 0 {
		d := nm.device(rest[0])
		if d == nil {
			return noSuchDevice(rest[0])
		}
		devices = []*NMDevice{d}
	}
	var b strings.Builder
	for i, d := range devices {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, f := range fields {
			switch f {
			case "GENERAL.DEVICE":
				fmt.Fprintf(&b, "%s:%s\n", f, escape(d.Name))
			case "GENERAL.HWADDR":
				fmt.Fprintf(&b, "%s:%s\n", f, escape(d.HWAddr))
			case "GENERAL.MTU":
				fmt.Fprintf(&b, "%s:%d\n", f, d.MTU)
			case "GENERAL.CON-UUID":
				fmt.Fprintf(&b, "%s:%s\n", f, d.Active)
			case "GENERAL.CONNECTION":
				name := ""
				if p := nm.lookup(d.Active); p != nil && d.Active != "" {
					name = p.Name
				}
				fmt.Fprintf(&b, "%s:%s\n", f, escape(name))
			case "IP4.ADDRESS":
				if d.Active != "" && d.Address != "" {
					fmt.Fprintf(&b, "%s[1]:%s\n", f, d.Address)
				}
			case "IP4.GATEWAY":
				if d.Active != "" {
					fmt.Fprintf(&b, "%s:%s\n", f, orDash(d.Gateway))
				}
			case "IP4.DNS":
				if d.Active != "" {
					for j, s := range d.DNS {
						fmt.Fprintf(&b, "%s[%d]:%s\n", f, j+1, escape(s))
					}
				}
			case "IP4.DOMAIN":
				if d.Active != "" {
					for j, s := range d.Domains {
						fmt.Fprintf(&b, "%s[%d]:%s\n", f, j+1, s)
					}
				}
			}
		}
	}
	return Response{Stdout: b.String()}
}

func (nm *FakeNM) wifiList(rest []string) Response {
	// list [ifname DEV] [--rescan yes|no]
	dev := ""
	for i := 0; i+1 < len(rest); i++ {
		if rest[i] == "ifname" {
			dev = rest[i+1]
		}
	}
	var b strings.Builder
	for _, d := range nm.devices {
		if dev != "" && d.Name != dev {
			continue
		}
		activeSSID := ""
		if p := nm.lookup(d.Active); p != nil && d.Active != "" {
			activeSSID = p.Props["802-11-wireless.ssid"]
		}
		for _, n := range d.Networks {
			active := "no"
			if n.SSID == activeSSID {
				active = "yes"
			}
			b.WriteString(terse(active, n.SSID, fmt.Sprint(n.Signal), n.Security))
			b.WriteByte('\n')
		}
	}
	return Response{Stdout: b.String()}
}

func (nm *FakeNM) deviceConnect(rest []string) Response {
	if len(rest) == 0 {
		return usage("missing device")
	}
	d := nm.device(rest[0])
	if d == nil {
		return noSuchDevice(rest[0])
	}
	var best *NMProfile
	for _, p := range nm.profiles {
		bound := p.Props["connection.interface-name"]
		if bound != "" && bound != d.Name {
			continue
		}
		if !typeMatches(p.Type, d.Type) {
			continue
		}
		if best == nil || p.Timestamp > best.Timestamp {
			best = p
		}
	}
	if best == nil {
		return Response{ExitCode: 4, Stderr: fmt.Sprintf("Error: Failed to add/activate new connection: No suitable connection for '%s'.\n", d.Name)}
	}
	if nm.FailActivation[best.Name] {
		return Response{ExitCode: 4, Stderr: "Error: Connection activation failed: IP configuration could not be reserved.\n"}
	}
	nm.activate(best, d)
	return Response{Stdout: fmt.Sprintf("Device '%s' successfully activated with '%s'.\n", d.Name, best.UUID)}
}

func typeMatches(profileType, deviceType string) bool {
	switch deviceType {
	case "wifi":
		return profileType == "802-11-wireless"
	case "ethernet":
		return profileType == "802-3-ethernet"
	}
	return strings.Contains(profileType, deviceType)
}

func (nm *FakeNM) deviceDisconnect(rest []string) Response {
	if len(rest) == 0 {
		return usage("missing device")
	}
	d := nm.device(rest[0])
	if d == nil {
		return noSuchDevice(rest[0])
	}
	if d.Active == "" {
		return Response{ExitCode: 6, Stderr: fmt.Sprintf("Error: Device '%s' (/org/freedesktop/NetworkManager/Devices/2) disconnecting failed: This device is not active\n", d.Name)}
	}
	d.Active = ""
	d.State = "disconnected"
	return Response{Stdout: fmt.Sprintf("Device '%s' successfully disconnected.\n", d.Name)}
}

func (nm *FakeNM) connectionShow(fields, rest []string) Response {
	if len(rest) == 0 {
		var b strings.Builder
		list := append(append([]*NMProfile{}, nm.profiles...), nm.ghostsForListing()...)
		for _, p := range list {
			dev, active := "", "no"
			if d := nm.activeDevice(p); d != nil {
				dev, active = d.Name, "yes"
			}
			b.WriteString(terse(p.Name, p.UUID, p.Type, orDash(dev), active, fmt.Sprint(p.Timestamp)))
			b.WriteByte('\n')
		}
		return Response{Stdout: b.String()}
	}

	p := nm.lookup(rest[0])
	if p == nil {
		return Response{ExitCode: 10, Stderr: fmt.Sprintf("Error: %s - no such connection profile.\n", rest[0])}
	}
	var b strings.Builder
	for _, f := range fields {
		var v string
		switch f {
		case "connection.id":
			v = p.Name
		case "connection.uuid":
			v = p.UUID
		case "connection.type":
			v = p.Type
		case "connection.timestamp":
			v = fmt.Sprint(p.Timestamp)
		default:
			if strings.HasPrefix(f, "802-11-wireless.") && p.Type != "802-11-wireless" {
				return Response{ExitCode: 2, Stderr: fmt.Sprintf("Error: invalid field '%s'.\n", f)}
			}
			v = p.Props[f]
		}
		fmt.Fprintf(&b, "%s:%s\n", f, escape(v))
	}
	return Response{Stdout: b.String()}
}

func (nm *FakeNM) ghostsForListing() []*NMProfile {
	var out []*NMProfile
	keep := nm.ghosts[:0]
	for _, g := range nm.ghosts {
		if nm.lingering[g.UUID] > 0 {
			nm.lingering[g.UUID]--
			out = append(out, g)
			keep = append(keep, g)
		}
	}
	nm.ghosts = keep
	return out
}

var profileTypes = map[string]string{
	"ethernet":        "802-3-ethernet",
	"802-3-ethernet":  "802-3-ethernet",
	"wifi":            "802-11-wireless",
	"802-11-wireless": "802-11-wireless",
}

func (nm *FakeNM) connectionAdd(rest []string) Response {
	props := map[string]string{}
	var typ, name, ifname, ssid string
	for i := 0; i < len(rest); i++ {
		if i+1 >= len(rest) {
			return usage(fmt.Sprintf("value for '%s' is missing", rest[i]))
		}
		key, val := rest[i], rest[i+1]
		i++
		switch key {
		case "type":
			typ = profileTypes[val]
			if typ == "" {
				return usage(fmt.Sprintf("invalid connection type '%s'", val))
			}
		case "con-name":
			name = val
		case "ifname":
			ifname = val
		case "ssid":
			ssid = val
		default:
			props[key] = val
		}
	}
	if typ == "" {
		return usage("connection type is required")
	}
	if typ == "802-11-wireless" && ssid == "" {
		return usage("'ssid' is required")
	}
	if name == "" {
		name = typ
	}
	if err := validateIPv4(props); err != "" {
		return usage(err)
	}
	props["connection.interface-name"] = ifname
	if ssid != "" {
		props["802-11-wireless.ssid"] = ssid
	}
	p := nm.newProfile(name, typ, props)
	p.Timestamp = 0
	return Response{Stdout: fmt.Sprintf("Connection '%s' (%s) successfully added.\n", p.Name, p.UUID)}
}

func validateIPv4(props map[string]string) string {
	if props["ipv4.method"] == "manual" && props["ipv4.addresses"] == "" {
		return "Failed to add/modify connection: ipv4.addresses: this property cannot be empty for 'method=manual'"
	}
	return ""
}

func (nm *FakeNM) connectionModify(rest []string) Response {
	if len(rest) == 0 {
		return usage("missing connection")
	}
	p := nm.lookup(rest[0])
	if p == nil {
		return noSuchConnection(rest[0])
	}
	kv := rest[1:]
	if len(kv)%2 != 0 {
		return usage("value is missing")
	}
	next := map[string]string{}
	for k, v := range p.Props {
		next[k] = v
	}
	for i := 0; i < len(kv); i += 2 {
		next[kv[i]] = kv[i+1]
	}
	if err := validateIPv4(next); err != "" {
		return usage(err)
	}
	p.Props = next
	return Response{}
}

func (nm *FakeNM) connectionDelete(rest []string) Response {
	if len(rest) == 0 {
		return usage("missing connection")
	}
	p := nm.lookup(rest[0])
	if p == nil {
		return noSuchConnection(rest[0])
	}
	if nm.FailDelete[p.Name] {
		return Response{ExitCode: 1, Stderr: "Error: Connection deletion failed: Insufficient privileges.\n"}
	}
	if d := nm.activeDevice(p); d != nil {
		d.Active = ""
		d.State = "disconnected"
	}
	for i, q := range nm.profiles {
		if q == p {
			nm.profiles = append(nm.profiles[:i], nm.profiles[i+1:]...)
			break
		}
	}
	if nm.Lingering > 0 {
		nm.lingering[p.UUID] = nm.Lingering
		nm.ghosts = append(nm.ghosts, p)
	}
	return Response{Stdout: fmt.Sprintf("Connection '%s' (%s) successfully deleted.\n", p.Name, p.UUID)}
}

func (nm *FakeNM) connectionUp(rest []string) Response {
	if len(rest) == 0 {
		return usage("missing connection")
	}
	p := nm.lookup(rest[0])
	if p == nil {
		return noSuchConnection(rest[0])
	}
	devName := p.Props["connection.interface-name"]
	for i := 1; i+1 < len(rest); i++ {
		if rest[i] == "ifname" {
			devName = rest[i+1]
		}
	}
	d := nm.device(devName)
	if d == nil {
		return Response{ExitCode: 10, Stderr: fmt.Sprintf("Error: device '%s' not compatible with connection '%s'.\n", devName, p.Name)}
	}
	if nm.FailActivation[p.Name] {
		return Response{ExitCode: 4, Stderr: "Error: Connection activation failed: IP configuration could not be reserved (no available address, timeout, etc.).\n"}
	}
	nm.activate(p, d)
	return Response{Stdout: "Connection successfully activated (D-Bus active path: /org/freedesktop/NetworkManager/ActiveConnection/7)\n"}
}
