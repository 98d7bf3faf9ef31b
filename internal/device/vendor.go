package device

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/taoyao-code/cec-server/internal/coremodel"
	"github.com/taoyao-code/cec-server/internal/protocol/cec"
)

// VendorTable 厂商标识 -> 名称
type VendorTable struct {
	names map[cec.VendorID]string
}

type vendorFile struct {
	Vendors []struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"vendors"`
}

// DefaultVendorTable 返回内置的常见厂商表
func DefaultVendorTable() *VendorTable {
	return &VendorTable{names: map[cec.VendorID]string{
		0x000039: "Toshiba",
		0x0000F0: "Samsung",
		0x0005CD: "Denon",
		0x0009B0: "Onkyo",
		0x001582: "Pulse Eight",
		0x008045: "Panasonic",
		0x00903E: "Philips",
		0x00A0DE: "Yamaha",
		0x00E036: "Pioneer",
		0x00E091: "LG",
		0x080046: "Sony",
		0x18C086: "Broadcom",
	}}
}

// LoadVendorTable 读取 yaml 厂商表并覆盖到内置表之上
func LoadVendorTable(path string) (*VendorTable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vendor table: %w", err)
	}
	var f vendorFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("unmarshal vendor table: %w", err)
	}
	t := DefaultVendorTable()
	for _, v := range f.Vendors {
		id, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(v.ID), "0x"), 16, 24)
		if err != nil {
			return nil, fmt.Errorf("vendor table: id %q: %w", v.ID, err)
		}
		t.names[cec.VendorID(id)] = v.Name
	}
	return t, nil
}

// Name 厂商名称，未知时返回 "unknown"
func (t *VendorTable) Name(id cec.VendorID) string {
	if t != nil {
		if n, ok := t.names[id]; ok {
			return n
		}
	}
	return "unknown"
}

// VendorRegistry 记录总线上各逻辑地址上报的厂商标识
type VendorRegistry struct {
	mu    sync.RWMutex
	table *VendorTable
	ids   map[cec.LogicalAddress]cec.VendorID
}

// NewVendorRegistry 创建厂商登记表
func NewVendorRegistry(table *VendorTable) *VendorRegistry {
	if table == nil {
		table = DefaultVendorTable()
	}
	return &VendorRegistry{table: table, ids: make(map[cec.LogicalAddress]cec.VendorID)}
}

// Register 登记，返回是否与之前记录不同
func (r *VendorRegistry) Register(from cec.LogicalAddress, id cec.VendorID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.ids[from]
	r.ids[from] = id
	return !ok || prev != id
}

// Lookup 查询某逻辑地址的厂商标识
func (r *VendorRegistry) Lookup(from cec.LogicalAddress) (cec.VendorID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.ids[from]
	return id, ok
}

// Name 厂商名称
func (r *VendorRegistry) Name(id cec.VendorID) string { return r.table.Name(id) }

// Entries 按逻辑地址排序的登记列表
func (r *VendorRegistry) Entries() []coremodel.VendorEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]coremodel.VendorEntry, 0, len(r.ids))
	for la, id := range r.ids {
		out = append(out, coremodel.VendorEntry{
			LogicalAddress: uint8(la),
			VendorID:       id.String(),
			Name:           r.table.Name(id),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LogicalAddress < out[j].LogicalAddress })
	return out
}
