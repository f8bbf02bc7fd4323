package services

import (
	"testing"

	"github.com/podplan/backend/internal/models"
	"github.com/podplan/backend/pkg/response"
)

func TestPodService_CreateAndUpdate(t *testing.T) {
	db := newTestDB(t)
	svc := NewPodService(db)

	pod, err := svc.Create(&PodRequest{Name: strp("Core")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if pod.Status != "active" || pod.MemberCount != 0 || pod.Members == nil {
		t.Errorf("unexpected pod %+v", pod)
	}

	_, err = svc.Create(&PodRequest{Name: strp("Edge"), Status: strp("paused")})
	assertKind(t, err, response.KindValidation)

	updated, err := svc.Update(pod.ID, &PodRequest{Status: strp("inactive"), Description: strp("platform")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Status != "inactive" || updated.Name != "Core" {
		t.Errorf("unexpected pod after update %+v", updated)
	}
	if updated.Description == nil || *updated.Description != "platform" {
		t.Errorf("description = %v, want platform", updated.Description)
	}
}

func TestPodService_BlankDescriptionIsNull(t *testing.T) {
	db := newTestDB(t)
	svc := NewPodService(db)

	pod, err := svc.Create(&PodRequest{Name: strp("Core"), Description: strp("")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if pod.Description != nil {
		t.Errorf("blank description on create = %q, want nil", *pod.Description)
	}

	if _, err := svc.Update(pod.ID, &PodRequest{Description: strp("platform")}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	cleared, err := svc.Update(pod.ID, &PodRequest{Description: strp(" ")})
	if err != nil {
		t.Fatalf("Update() clear error = %v", err)
	}
	if cleared.Description != nil {
		t.Errorf("blank description on update = %q, want nil", *cleared.Description)
	}
}

func TestPodService_ListMembers(t *testing.T) {
	db := newTestDB(t)
	svc := NewPodService(db)
	core, _ := svc.Create(&PodRequest{Name: strp("Core")})
	svc.Create(&PodRequest{Name: strp("Apps")})

	resources := NewResourceService(db)
	resources.Create(&ResourceRequest{Name: strp("Zoe"), PodIDs: &[]string{core.ID}})
	resources.Create(&ResourceRequest{Name: strp("Adam"), PodIDs: &[]string{core.ID}})

	pods, err := svc.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(pods) != 2 || pods[0].Name != "Apps" || pods[1].MemberCount != 2 {
		t.Fatalf("unexpected pods %+v", pods)
	}
	if pods[1].Members[0].Name != "Adam" {
		t.Errorf("members not ordered by name: %+v", pods[1].Members)
	}
}

func TestPodService_DeleteUnassigns(t *testing.T) {
	db := newTestDB(t)
	svc := NewPodService(db)
	pod, _ := svc.Create(&PodRequest{Name: strp("Core")})
	r, _ := NewResourceService(db).Create(&ResourceRequest{Name: strp("Alice"), PodIDs: &[]string{pod.ID}})
	p, err := NewProjectService(db).Create(&ProjectRequest{Name: strp("Redesign"), Status: strp("active"), Pods: &[]string{pod.ID}})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	if err := svc.Delete(pod.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var resources, links, projectLinks int64
	db.Model(&models.Resource{}).Where("id = ?", r.ID).Count(&resources)
	db.Model(&models.ResourcePod{}).Where("pod_id = ?", pod.ID).Count(&links)
	db.Model(&models.ProjectPod{}).Where("project_id = ?", p.ID).Count(&projectLinks)
	if resources != 1 {
		t.Error("member resource should be kept")
	}
	if links != 0 || projectLinks != 0 {
		t.Errorf("left %d member links and %d project links", links, projectLinks)
	}
	assertKind(t, svc.Delete(pod.ID), response.KindNotFound)
}
