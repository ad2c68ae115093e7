package usecase

import (
	"ndx-snapshot-backend/internal/api/dto"
	"ndx-snapshot-backend/internal/models"
)

const (
	rootName        = "NDX"
	unknownSector   = "Unknown"
	unknownIndustry = "Other"
)

// BuildHierarchy groups quotes as root -> sector -> industry -> symbol.
// Groups keep the order in which they first appear.
func BuildHierarchy(quotes []models.Quote) *dto.TreemapNode {
	root := &dto.TreemapNode{Name: rootName, Children: []*dto.TreemapNode{}}
	sectors := map[string]*dto.TreemapNode{}
	industries := map[[2]string]*dto.TreemapNode{}

	for i := range quotes {
		q := quotes[i].Clone()
		sector := label(q.Sector, unknownSector)
		industry := label(q.Industry, unknownIndustry)

		s, ok := sectors[sector]
		if !ok {
			s = &dto.TreemapNode{Name: sector}
			sectors[sector] = s
			root.Children = append(root.Children, s)
		}
		key := [2]string{sector, industry}
		ind, ok := industries[key]
		if !ok {
			ind = &dto.TreemapNode{Name: industry}
			industries[key] = ind
			s.Children = append(s.Children, ind)
		}
		ind.Children = append(ind.Children, &dto.TreemapNode{Name: q.Symbol, Data: &q})
	}
	return root
}

func label(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}
