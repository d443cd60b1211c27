package storage

import (
	"fmt"

	"github.com/sandeepkv93/timeaudit/internal/model"
)

func (s *Store) SaveProject(project model.Project) error {
	if err := project.Validate(); err != nil {
		return err
	}
	return s.upsert(projectsFile, model.ProjectColumns, project.ID, project.Record())
}

// LoadProjects returns all projects in storage order.
func (s *Store) LoadProjects() ([]model.Project, error) {
	rows, err := readCSV(s.path(projectsFile), model.ProjectColumns)
	if err != nil {
		return nil, err
	}
	projects := make([]model.Project, 0, len(rows))
	for i, row := range rows {
		project, err := model.ProjectFromRecord(row)
		if err != nil {
			return nil, fmt.Errorf("storage: %s row %d: %w", projectsFile, i+2, err)
		}
		projects = append(projects, project)
	}
	return projects, nil
}

func (s *Store) GetProject(id string) (model.Project, error) {
	projects, err := s.LoadProjects()
	if err != nil {
		return model.Project{}, err
	}
	for _, project := range projects {
		if project.ID == id {
			return project, nil
		}
	}
	return model.Project{}, ErrNotFound
}

func (s *Store) DeleteProject(id string) (bool, error) {
	return s.remove(projectsFile, model.ProjectColumns, id)
}
