package pureservice

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/sirupsen/logrus"
)

const (
	companyPath    = "company"
	departmentPath = "companydepartment"
	locationPath   = "companylocation"
)

type CompanyService struct {
	service
}

func NewCompanyService(caller Requester, opts ...ServiceOption) *CompanyService {
	return &CompanyService{service: newService(caller, opts)}
}

type newCompanyItem struct {
	Name     string `json:"name"`
	Disabled bool   `json:"disabled"`
}

type newCompanyChildItem struct {
	Name  string `json:"name"`
	Links Links  `json:"links"`
}

func companyLink(companyId int) Links {
	return Links{Company: &Link{Id: companyId, Type: "company"}}
}

func (s *CompanyService) AddCompany(ctx context.Context, name string) (result *Company, err error) {
	var payload = struct {
		Companies []newCompanyItem `json:"companies"`
	}{Companies: []newCompanyItem{{Name: name}}}

	var response companyList
	if err = s.caller.Post(ctx, companyPath, payload, &response); err == nil {
		result, err = first(response.Companies, "companies")
	}
	s.count("pureservice_company_created", "Number of companies created", err)
	if err != nil {
		s.log.WithError(err).WithField("company", name).Error("Failed to create company")
		return
	}
	s.log.WithFields(logrus.Fields{"companyId": result.Id, "company": name}).Info("Created company")
	return
}

func (s *CompanyService) AddDepartment(ctx context.Context, name string, companyId int) (result *CompanyDepartment, err error) {
	var payload = struct {
		Departments []newCompanyChildItem `json:"companydepartments"`
	}{Departments: []newCompanyChildItem{{Name: name, Links: companyLink(companyId)}}}

	var response departmentList
	if err = s.caller.Post(ctx, departmentPath, payload, &response); err == nil {
		result, err = first(response.Departments, "companydepartments")
	}
	s.count("pureservice_department_created", "Number of departments created", err)
	var log = s.log.WithFields(logrus.Fields{"companyId": companyId, "department": name})
	if err != nil {
		log.WithError(err).Error("Failed to create department")
		return
	}
	if result.CompanyId == nil {
		result.CompanyId = Ptr(companyId)
	}
	log.WithField("departmentId", result.Id).Info("Created department")
	return
}

func (s *CompanyService) AddLocation(ctx context.Context, name string, companyId int) (result *CompanyLocation, err error) {
	var payload = struct {
		Locations []newCompanyChildItem `json:"companylocations"`
	}{Locations: []newCompanyChildItem{{Name: name, Links: companyLink(companyId)}}}

	var response locationList
	if err = s.caller.Post(ctx, locationPath, payload, &response); err == nil {
		result, err = first(response.Locations, "companylocations")
	}
	s.count("pureservice_location_created", "Number of locations created", err)
	var log = s.log.WithFields(logrus.Fields{"companyId": companyId, "location": name})
	if err != nil {
		log.WithError(err).Error("Failed to create location")
		return
	}
	if result.CompanyId == nil {
		result.CompanyId = Ptr(companyId)
	}
	log.WithField("locationId", result.Id).Info("Created location")
	return
}

func getAll[T any](ctx context.Context, s *service, path string, query url.Values, items func(body []byte) ([]T, error)) (result []T, err error) {
	err = s.caller.GetPaged(ctx, path, query, func(body []byte) (count int, err error) {
		var page []T
		if page, err = items(body); err != nil {
			return
		}
		result = append(result, page...)
		count = len(page)
		return
	})
	if err != nil {
		s.log.WithError(err).WithField("path", path).Error("Failed to fetch Pureservice resources")
		result = nil
		return
	}
	s.log.WithFields(logrus.Fields{"path": path, "count": len(result)}).Debug("Fetched Pureservice resources")
	return
}

func (s *CompanyService) GetCompanies(ctx context.Context) ([]Company, error) {
	var query = url.Values{}
	query.Set("include", "departments,locations")
	return getAll(ctx, &s.service, companyPath, query, func(body []byte) (items []Company, err error) {
		var page companyList
		err = json.Unmarshal(body, &page)
		items = page.Companies
		return
	})
}

func (s *CompanyService) GetDepartments(ctx context.Context) ([]CompanyDepartment, error) {
	return getAll(ctx, &s.service, departmentPath, nil, func(body []byte) (items []CompanyDepartment, err error) {
		var page departmentList
		err = json.Unmarshal(body, &page)
		items = page.Departments
		return
	})
}

func (s *CompanyService) GetLocations(ctx context.Context) ([]CompanyLocation, error) {
	return getAll(ctx, &s.service, locationPath, nil, func(body []byte) (items []CompanyLocation, err error) {
		var page locationList
		err = json.Unmarshal(body, &page)
		items = page.Locations
		return
	})
}
