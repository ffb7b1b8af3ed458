package reconcile

import "github.com/vestfoldfylke/pureservice-sync/pureservice"

// Catalog holds the companies, departments and locations of one run.
// Entities created during the run are appended so later users find them.
type Catalog struct {
	Companies   []pureservice.Company
	Departments []pureservice.CompanyDepartment
	Locations   []pureservice.CompanyLocation
}

func (c *Catalog) Company(id *int) *pureservice.Company {
	return findFirst(c.Companies, byId(id, companyIdOf))
}

func (c *Catalog) AddCompany(company pureservice.Company) *pureservice.Company {
	c.Companies = append(c.Companies, company)
	return &c.Companies[len(c.Companies)-1]
}

func (c *Catalog) companyLinks(companyId int) *pureservice.Links {
	var company = c.Company(&companyId)
	if company == nil {
		return nil
	}
	if company.Links == nil {
		company.Links = &pureservice.Links{}
	}
	return company.Links
}

// AddDepartment appends department and links it to its company.
func (c *Catalog) AddDepartment(department pureservice.CompanyDepartment, companyId int) {
	if department.CompanyId == nil {
		department.CompanyId = pureservice.Ptr(companyId)
	}
	c.Departments = append(c.Departments, department)
	if links := c.companyLinks(companyId); links != nil {
		if links.Departments == nil {
			links.Departments = &pureservice.LinkIds{}
		}
		links.Departments.Ids = append(links.Departments.Ids, department.Id)
	}
}

func (c *Catalog) AddLocation(location pureservice.CompanyLocation, companyId int) {
	if location.CompanyId == nil {
		location.CompanyId = pureservice.Ptr(companyId)
	}
	c.Locations = append(c.Locations, location)
	if links := c.companyLinks(companyId); links != nil {
		if links.Locations == nil {
			links.Locations = &pureservice.LinkIds{}
		}
		links.Locations.Ids = append(links.Locations.Ids, location.Id)
	}
}
