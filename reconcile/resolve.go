package reconcile

import (
	"github.com/vestfoldfylke/pureservice-sync/entra"
	"github.com/vestfoldfylke/pureservice-sync/pureservice"
)

// Resolution is the outcome of resolving a company, department or location.
// With Update set, the target moves to Resolved, or to a new entity named
// NameToCreate, or is cleared when both are empty.
type Resolution[T any] struct {
	Update       bool
	Resolved     *T
	NameToCreate string
}

func decide[T any](current *T, wanted *T, wantedName string, idOf func(*T) int) (r Resolution[T]) {
	switch {
	case wanted != nil:
		r.Resolved = wanted
		r.Update = current == nil || idOf(current) != idOf(wanted)
	case len(wantedName) > 0:
		r.Update = true
		r.NameToCreate = wantedName
	default:
		r.Update = current != nil
	}
	return
}

func companyIdOf(c *pureservice.Company) int { return c.Id }

func departmentIdOf(d *pureservice.CompanyDepartment) int { return d.Id }

func locationIdOf(l *pureservice.CompanyLocation) int { return l.Id }

func byId[T any](id *int, idOf func(*T) int) func(*T) bool {
	return func(item *T) bool {
		return id != nil && idOf(item) == *id
	}
}

func byName[T any](name string, nameOf func(*T) string) func(*T) bool {
	return func(item *T) bool {
		return sameName(nameOf(item), name)
	}
}

// ownedBy accepts entities listed in ids whose owning company, when known, is companyId.
func ownedBy[T any](companyId int, ids []int, idOf func(*T) int, ownerOf func(*T) *int) func(*T) bool {
	var known = MakeSet(ids)
	return func(item *T) bool {
		if !known.Has(idOf(item)) {
			return false
		}
		var owner = ownerOf(item)
		return owner == nil || *owner == companyId
	}
}

// resolveWithin finds the current entity by id and the wanted entity by name,
// both restricted to scope.
func resolveWithin[T any](items []T, currentId *int, wantedName string, idOf func(*T) int, nameOf func(*T) string, scope ...func(*T) bool) Resolution[T] {
	var current, wanted *T
	if currentId != nil {
		current = findFirst(items, append([]func(*T) bool{byId(currentId, idOf)}, scope...)...)
	}
	if len(wantedName) > 0 {
		wanted = findFirst(items, append([]func(*T) bool{byName(wantedName, nameOf)}, scope...)...)
	}
	return decide(current, wanted, wantedName, idOf)
}

func ResolveCompany(target *pureservice.User, source *entra.User, companies []pureservice.Company) Resolution[pureservice.Company] {
	var currentId *int
	if target != nil {
		currentId = target.CompanyId
	}
	return resolveWithin(companies, currentId, source.CompanyName, companyIdOf,
		func(c *pureservice.Company) string { return c.Name })
}

// ResolveDepartment resolves the department among the departments of company.
// Without a company nothing can be resolved.
func ResolveDepartment(target *pureservice.User, source *entra.User, company *pureservice.Company, departments []pureservice.CompanyDepartment) Resolution[pureservice.CompanyDepartment] {
	if company == nil {
		return Resolution[pureservice.CompanyDepartment]{}
	}
	var currentId *int
	if target != nil {
		currentId = target.CompanyDepartmentId
	}
	return resolveWithin(departments, currentId, source.Department, departmentIdOf,
		func(d *pureservice.CompanyDepartment) string { return d.Name },
		ownedBy(company.Id, company.DepartmentIds(), departmentIdOf,
			func(d *pureservice.CompanyDepartment) *int { return d.CompanyId }))
}

func ResolveLocation(target *pureservice.User, source *entra.User, company *pureservice.Company, locations []pureservice.CompanyLocation) Resolution[pureservice.CompanyLocation] {
	if company == nil {
		return Resolution[pureservice.CompanyLocation]{}
	}
	var currentId *int
	if target != nil {
		currentId = target.CompanyLocationId
	}
	return resolveWithin(locations, currentId, source.OfficeLocation, locationIdOf,
		func(l *pureservice.CompanyLocation) string { return l.Name },
		ownedBy(company.Id, company.LocationIds(), locationIdOf,
			func(l *pureservice.CompanyLocation) *int { return l.CompanyId }))
}

func updateItem[T any](property string, r Resolution[T], idOf func(*T) int) *pureservice.CompanyUpdateItem {
	if !r.Update {
		return nil
	}
	var item = &pureservice.CompanyUpdateItem{PropertyName: property, NameToCreate: r.NameToCreate}
	if r.Resolved != nil {
		item.Id = pureservice.Ptr(idOf(r.Resolved))
	}
	return item
}

func NeedsCompanyUpdate(target *pureservice.User, source *entra.User, companies []pureservice.Company) *pureservice.CompanyUpdateItem {
	return updateItem(pureservice.PropertyCompanyId, ResolveCompany(target, source, companies), companyIdOf)
}

// NeedsDepartmentUpdate resolves the department within the company the source
// user belongs to.
func NeedsDepartmentUpdate(target *pureservice.User, source *entra.User, companies []pureservice.Company, departments []pureservice.CompanyDepartment) *pureservice.CompanyUpdateItem {
	var company = ResolveCompany(target, source, companies).Resolved
	return updateItem(pureservice.PropertyCompanyDepartmentId, ResolveDepartment(target, source, company, departments), departmentIdOf)
}

func NeedsLocationUpdate(target *pureservice.User, source *entra.User, companies []pureservice.Company, locations []pureservice.CompanyLocation) *pureservice.CompanyUpdateItem {
	var company = ResolveCompany(target, source, companies).Resolved
	return updateItem(pureservice.PropertyCompanyLocationId, ResolveLocation(target, source, company, locations), locationIdOf)
}
