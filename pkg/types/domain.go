// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// Domain is a legal subject-matter category used to scope retrieval and
// terminology.
type Domain string

const (
	DomainConstitution   Domain = "hien_phap"
	DomainCivil          Domain = "dan_su"
	DomainCriminal       Domain = "hinh_su"
	DomainLabor          Domain = "lao_dong"
	DomainCommercial     Domain = "thuong_mai"
	DomainAdministrative Domain = "hanh_chinh"
	DomainTax            Domain = "thue"
	DomainRealEstate     Domain = "bat_dong_san"
	DomainFamily         Domain = "gia_dinh"
	DomainGeneral        Domain = "general"
)

// DomainInfo describes a legal domain: its display name, the keywords the
// classifier counts, the primary law, and the related domains the retriever
// falls back to, in order.
type DomainInfo struct {
	Domain      Domain   `json:"domain" yaml:"domain"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Keywords    []string `json:"keywords" yaml:"keywords"`
	PrimaryLaw  string   `json:"primary_law" yaml:"primary_law"`
	Related     []Domain `json:"related" yaml:"related"`
}

// Domains is the ordered domain table. Declaration order is the classifier
// tie-break priority.
var Domains = []DomainInfo{
	{
		Domain:      DomainConstitution,
		Name:        "Hiến pháp",
		Description: "Chế độ chính trị, quyền con người, quyền và nghĩa vụ cơ bản của công dân",
		Keywords:    []string{"hiến pháp", "quyền con người", "quyền công dân", "nghĩa vụ công dân", "bầu cử"},
		PrimaryLaw:  "Hiến pháp 2013",
		Related:     []Domain{DomainAdministrative, DomainCivil},
	},
	{
		Domain:      DomainCivil,
		Name:        "Luật Dân sự",
		Description: "Quyền sở hữu, hợp đồng, nghĩa vụ dân sự, thừa kế",
		Keywords:    []string{"hợp đồng", "sở hữu", "thừa kế", "dân sự", "tài sản", "bồi thường"},
		PrimaryLaw:  "Bộ luật Dân sự 2015",
		Related:     []Domain{DomainCommercial, DomainFamily, DomainRealEstate},
	},
	{
		Domain:      DomainCriminal,
		Name:        "Luật Hình sự",
		Description: "Tội phạm, hình phạt, thủ tục tố tụng hình sự",
		Keywords:    []string{"tội phạm", "hình phạt", "tố tụng", "án tù", "tòa án", "hình sự", "truy cứu"},
		PrimaryLaw:  "Bộ luật Hình sự 2015",
		Related:     []Domain{DomainAdministrative, DomainCivil},
	},
	{
		Domain:      DomainLabor,
		Name:        "Luật Lao động",
		Description: "Hợp đồng lao động, quyền lao động, bảo hiểm xã hội",
		Keywords:    []string{"lao động", "nghỉ việc", "lương", "bảo hiểm xã hội", "thôi việc", "sa thải", "người sử dụng lao động"},
		PrimaryLaw:  "Bộ luật Lao động 2019",
		Related:     []Domain{DomainCivil, DomainAdministrative},
	},
	{
		Domain:      DomainCommercial,
		Name:        "Luật Thương mại",
		Description: "Kinh doanh, thương mại, doanh nghiệp, cạnh tranh",
		Keywords:    []string{"kinh doanh", "thương mại", "công ty", "doanh nghiệp", "cổ phần"},
		PrimaryLaw:  "Luật Thương mại 2005",
		Related:     []Domain{DomainCivil, DomainTax},
	},
	{
		Domain:      DomainAdministrative,
		Name:        "Luật Hành chính",
		Description: "Thủ tục hành chính, xử phạt vi phạm hành chính, khiếu nại",
		Keywords:    []string{"hành chính", "xử phạt", "khiếu nại", "giấy phép", "cơ quan nhà nước"},
		PrimaryLaw:  "Luật Xử lý vi phạm hành chính 2012",
		Related:     []Domain{DomainConstitution, DomainCivil},
	},
	{
		Domain:      DomainTax,
		Name:        "Luật Thuế",
		Description: "Thuế thu nhập, thuế giá trị gia tăng, quản lý thuế",
		Keywords:    []string{"thuế", "khai thuế", "nộp thuế", "miễn thuế", "hoàn thuế"},
		PrimaryLaw:  "Luật Quản lý thuế 2019",
		Related:     []Domain{DomainCommercial, DomainAdministrative},
	},
	{
		Domain:      DomainRealEstate,
		Name:        "Luật Đất đai và Bất động sản",
		Description: "Quyền sử dụng đất, nhà ở, kinh doanh bất động sản",
		Keywords:    []string{"nhà đất", "bất động sản", "mua bán nhà", "đất đai", "sổ đỏ", "quyền sử dụng đất"},
		PrimaryLaw:  "Luật Đất đai 2024",
		Related:     []Domain{DomainCivil, DomainAdministrative},
	},
	{
		Domain:      DomainFamily,
		Name:        "Luật Hôn nhân và Gia đình",
		Description: "Hôn nhân, ly hôn, quyền trẻ em, nhận con nuôi",
		Keywords:    []string{"kết hôn", "ly hôn", "trẻ em", "con nuôi", "gia đình", "hôn nhân", "nuôi con"},
		PrimaryLaw:  "Luật Hôn nhân và Gia đình 2014",
		Related:     []Domain{DomainCivil},
	},
	{
		Domain:      DomainGeneral,
		Name:        "Pháp luật chung",
		Description: "Câu hỏi pháp lý chưa xác định lĩnh vực",
		PrimaryLaw:  "Hiến pháp 2013",
	},
}

// Info returns the table entry for d. Unknown domains return the general
// entry.
func (d Domain) Info() DomainInfo {
	for _, info := range Domains {
		if info.Domain == d {
			return info
		}
	}
	return Domains[len(Domains)-1]
}

// ParseDomain validates s against the domain table.
func ParseDomain(s string) (Domain, error) {
	for _, info := range Domains {
		if string(info.Domain) == s {
			return info.Domain, nil
		}
	}
	return "", fmt.Errorf("unknown legal domain %q", s)
}

// Region is a Vietnamese region whose local legal focus is added to the
// synthesis prompt.
type Region string

const (
	RegionNorth        Region = "north"
	RegionCentral      Region = "central"
	RegionSouth        Region = "south"
	RegionSpecialZones Region = "special_zones"
)

// RegionInfo describes a region's economic specialties and the laws most
// relevant there.
type RegionInfo struct {
	Region      Region   `json:"region" yaml:"region"`
	Name        string   `json:"name" yaml:"name"`
	Specialties []string `json:"specialties" yaml:"specialties"`
	LegalFocus  []string `json:"legal_focus" yaml:"legal_focus"`
}

// Regions lists the supported regions.
var Regions = []RegionInfo{
	{
		Region:      RegionNorth,
		Name:        "Miền Bắc",
		Specialties: []string{"Đất nông nghiệp", "Di sản văn hóa", "Thương mại biên giới"},
		LegalFocus:  []string{"Luật Đất đai", "Luật Di sản văn hóa"},
	},
	{
		Region:      RegionCentral,
		Name:        "Miền Trung",
		Specialties: []string{"Du lịch", "Thủy sản", "Thiên tai"},
		LegalFocus:  []string{"Luật Du lịch", "Luật Thủy sản", "Luật Phòng chống thiên tai"},
	},
	{
		Region:      RegionSouth,
		Name:        "Miền Nam",
		Specialties: []string{"Thương mại", "Xuất nhập khẩu", "Nông nghiệp"},
		LegalFocus:  []string{"Luật Thương mại", "Luật Hải quan", "Luật Nông nghiệp"},
	},
	{
		Region:      RegionSpecialZones,
		Name:        "Khu Kinh tế Đặc biệt",
		Specialties: []string{"Đầu tư FDI", "Thuế ưu đãi", "Hải quan"},
		LegalFocus:  []string{"Luật Đầu tư", "Luật Thuế", "Luật Hải quan"},
	},
}

// Info returns the table entry for r and whether it exists.
func (r Region) Info() (RegionInfo, bool) {
	for _, info := range Regions {
		if info.Region == r {
			return info, true
		}
	}
	return RegionInfo{}, false
}

// ParseRegion validates s against the region table.
func ParseRegion(s string) (Region, error) {
	if _, ok := Region(s).Info(); ok {
		return Region(s), nil
	}
	return "", fmt.Errorf("unknown region %q", s)
}
