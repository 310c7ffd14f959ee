package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"studyplanner-backend/internal/models"
)

// ListSubjectTrees loads all of a user's subjects with chapters, topics and
// sessions in four queries and stitches them together in memory.
func (q *Queries) ListSubjectTrees(ctx context.Context, userID uuid.UUID) ([]models.SubjectTree, error) {
	subjects, err := q.ListSubjects(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	return q.loadTrees(ctx, subjects, `WHERE s.user_id = $1`, userID)
}

// GetSubjectTree loads one subject with chapters, topics and sessions.
func (q *Queries) GetSubjectTree(ctx context.Context, subjectID uuid.UUID) (*models.SubjectTree, error) {
	subject, err := q.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	trees, err := q.loadTrees(ctx, []models.Subject{*subject}, `WHERE s.id = $1`, subjectID)
	if err != nil {
		return nil, err
	}
	return &trees[0], nil
}

func (q *Queries) loadTrees(ctx context.Context, subjects []models.Subject, filter string, arg any) ([]models.SubjectTree, error) {
	trees := make([]models.SubjectTree, len(subjects))
	bySubject := make(map[uuid.UUID]*models.SubjectTree, len(subjects))
	for i, s := range subjects {
		trees[i] = models.SubjectTree{Subject: s, Chapters: []models.ChapterTree{}, Sessions: []models.StudySession{}}
		bySubject[s.ID] = &trees[i]
	}
	if len(subjects) == 0 {
		return trees, nil
	}

	chapterRows, err := q.db.Query(ctx, `
		SELECT c.id, c.subject_id, c.name, c.last_studied, c.created_at
		FROM chapters c
		JOIN subjects s ON s.id = c.subject_id `+filter+`
		ORDER BY c.created_at, c.id`, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	// chapter id -> (subject tree, index in Chapters)
	type chapterRef struct {
		tree *models.SubjectTree
		idx  int
	}
	chapters := map[uuid.UUID]chapterRef{}
	for chapterRows.Next() {
		c, err := scanChapter(chapterRows)
		if err != nil {
			chapterRows.Close()
			return nil, err
		}
		tree := bySubject[c.SubjectID]
		if tree == nil {
			continue
		}
		tree.Chapters = append(tree.Chapters, models.ChapterTree{Chapter: *c, Topics: []models.Topic{}})
		chapters[c.ID] = chapterRef{tree: tree, idx: len(tree.Chapters) - 1}
	}
	chapterRows.Close()
	if err := chapterRows.Err(); err != nil {
		return nil, err
	}

	topicRows, err := q.db.Query(ctx, `
		SELECT t.id, t.chapter_id, t.name, t.status, t.progress, t.notes, t.created_at
		FROM topics t
		JOIN chapters c ON c.id = t.chapter_id
		JOIN subjects s ON s.id = c.subject_id `+filter+`
		ORDER BY t.created_at, t.id`, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	for topicRows.Next() {
		t, err := scanTopic(topicRows)
		if err != nil {
			topicRows.Close()
			return nil, err
		}
		ref, ok := chapters[t.ChapterID]
		if !ok {
			continue
		}
		ch := &ref.tree.Chapters[ref.idx]
		ch.Topics = append(ch.Topics, *t)
	}
	topicRows.Close()
	if err := topicRows.Err(); err != nil {
		return nil, err
	}

	sessions, err := q.listSessions(ctx, `
		SELECT ss.id, ss.user_id, ss.subject_id, ss.start_time, ss.end_time, ss.duration_minutes, ss.notes
		FROM study_sessions ss
		JOIN subjects s ON s.id = ss.subject_id `+filter+`
		ORDER BY ss.start_time`, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	for _, ss := range sessions {
		if tree := bySubject[ss.SubjectID]; tree != nil {
			tree.Sessions = append(tree.Sessions, ss)
		}
	}

	return trees, nil
}
