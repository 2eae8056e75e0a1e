package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"VibeFM/logger"
	"VibeFM/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	analysesCollection = "analyses"
	usersCollection    = "users"
)

// MongoBackend persists analyses and users in MongoDB. Playlists are
// stored as native subdocuments; the opaque context blobs stay strings.
type MongoBackend struct {
	uri      string
	database string
	timeout  time.Duration

	client *mongo.Client
	db     *mongo.Database
}

type mongoAnalysis struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty"`
	Filename        string               `bson:"filename,omitempty"`
	DominantEmotion string               `bson:"dominant_emotion"`
	Confidence      float64              `bson:"confidence"`
	Vibe            string               `bson:"vibe"`
	MoodCategory    string               `bson:"mood_category"`
	Playlist        []model.PlaylistItem `bson:"playlist"`
	ColorAnalysis   string               `bson:"color_analysis,omitempty"`
	Preferences     string               `bson:"preferences,omitempty"`
	MoodQuizData    string               `bson:"mood_quiz_data,omitempty"`
	UserID          string               `bson:"user_id,omitempty"`
	IsFavorite      bool                 `bson:"is_favorite"`
	ViewCount       int                  `bson:"view_count"`
	CreatedAt       time.Time            `bson:"created_at"`
	UpdatedAt       time.Time            `bson:"updated_at"`
}

type mongoUser struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Email         string             `bson:"email,omitempty"`
	Username      string             `bson:"username,omitempty"`
	Preferences   string             `bson:"preferences,omitempty"`
	MoodQuizData  string             `bson:"mood_quiz_data,omitempty"`
	TotalAnalyses int                `bson:"total_analyses"`
	LastActive    time.Time          `bson:"last_active"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

func NewMongoBackend(uri, database string, timeout time.Duration) *MongoBackend {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MongoBackend{uri: uri, database: database, timeout: timeout}
}

func (m *MongoBackend) Type() string {
	return "mongodb"
}

// Connect dials the server, verifies it with a ping and creates the
// indexes the query paths rely on.
func (m *MongoBackend) Connect(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().ApplyURI(m.uri))
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(dialCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("failed to ping mongodb: %w", err)
	}

	m.client = client
	m.db = client.Database(m.database)

	if err := m.ensureIndexes(ctx); err != nil {
		logger.Warn("Failed to create mongodb indexes", logger.ErrorField(err))
	}

	logger.Info("Connected to MongoDB", logger.String("database", m.database))
	return nil
}

func (m *MongoBackend) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "dominant_emotion", Value: 1}}},
		{Keys: bson.D{{Key: "mood_category", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "is_favorite", Value: 1}}},
	}
	_, err := m.db.Collection(analysesCollection).Indexes().CreateMany(ctx, indexes)
	return err
}

func (m *MongoBackend) Disconnect(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	if err := m.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from mongodb: %w", err)
	}
	m.client = nil
	m.db = nil
	return nil
}

func (m *MongoBackend) SaveAnalysis(ctx context.Context, record *model.AnalysisRecord) (string, error) {
	now := time.Now()
	doc := mongoAnalysis{
		Filename:        record.Filename,
		DominantEmotion: record.DominantEmotion,
		Confidence:      record.Confidence,
		Vibe:            record.Vibe,
		MoodCategory:    record.MoodCategory,
		Playlist:        record.Playlist,
		ColorAnalysis:   string(record.ColorAnalysis),
		Preferences:     string(record.Preferences),
		MoodQuizData:    string(record.MoodQuizData),
		UserID:          record.UserID,
		IsFavorite:      record.IsFavorite,
		ViewCount:       record.ViewCount,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	result, err := m.db.Collection(analysesCollection).InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to insert analysis: %w", err)
	}
	id := result.InsertedID.(primitive.ObjectID).Hex()
	logger.Info("Analysis saved to MongoDB", logger.String("id", id))
	return id, nil
}

func (m *MongoBackend) GetAnalysis(ctx context.Context, id string) (*model.AnalysisRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc mongoAnalysis
	err = m.db.Collection(analysesCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find analysis: %w", err)
	}
	return fromMongoAnalysis(&doc), nil
}

func (m *MongoBackend) GetRecentAnalyses(ctx context.Context, limit int) ([]*model.AnalysisRecord, error) {
	if limit < 0 {
		limit = 0
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.db.Collection(analysesCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent analyses: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeAnalyses(ctx, cursor)
}

func (m *MongoBackend) SearchAnalyses(ctx context.Context, filters SearchFilters) (*SearchResult, error) {
	filters.normalize()
	query := buildSearchQuery(&filters)

	coll := m.db.Collection(analysesCollection)
	total, err := coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count analyses: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((filters.Page - 1) * filters.Limit)).
		SetLimit(int64(filters.Limit))

	cursor, err := coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search analyses: %w", err)
	}
	defer cursor.Close(ctx)

	records, err := decodeAnalyses(ctx, cursor)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / filters.Limit
	if int(total)%filters.Limit != 0 {
		totalPages++
	}
	return &SearchResult{
		Analyses:   records,
		Total:      int(total),
		Page:       filters.Page,
		TotalPages: totalPages,
	}, nil
}

func buildSearchQuery(f *SearchFilters) bson.M {
	query := bson.M{}
	if f.Emotion != "" {
		query["dominant_emotion"] = primitive.Regex{Pattern: f.Emotion, Options: "i"}
	}
	if f.Mood != "" {
		query["mood_category"] = primitive.Regex{Pattern: f.Mood, Options: "i"}
	}
	if !f.DateFrom.IsZero() || !f.DateTo.IsZero() {
		created := bson.M{}
		if !f.DateFrom.IsZero() {
			created["$gte"] = f.DateFrom
		}
		if !f.DateTo.IsZero() {
			created["$lte"] = f.DateTo
		}
		query["created_at"] = created
	}
	if f.Keyword != "" {
		regex := primitive.Regex{Pattern: f.Keyword, Options: "i"}
		query["$or"] = []bson.M{
			{"vibe": regex},
			{"playlist.title": regex},
			{"playlist.artist": regex},
			{"playlist.reason": regex},
		}
	}
	if f.FavoriteOnly {
		query["is_favorite"] = true
	}
	if f.UserID != "" {
		query["user_id"] = f.UserID
	}
	return query
}

func (m *MongoBackend) GetAnalytics(ctx context.Context) (*model.Analytics, error) {
	coll := m.db.Collection(analysesCollection)
	now := time.Now()

	total, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count analyses: %w", err)
	}
	recent, err := coll.CountDocuments(ctx, bson.M{
		"created_at": bson.M{"$gte": now.AddDate(0, 0, -30)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count recent analyses: %w", err)
	}

	analytics := &model.Analytics{
		TotalAnalyses:       int(total),
		RecentAnalyses:      int(recent),
		EmotionDistribution: make(map[string]int),
		MoodDistribution:    make(map[string]int),
		DailyActivity:       make(map[string]int),
	}

	if err := m.aggregateCounts(ctx, "$dominant_emotion", analytics.EmotionDistribution); err != nil {
		return nil, err
	}
	if err := m.aggregateCounts(ctx, "$mood_category", analytics.MoodDistribution); err != nil {
		return nil, err
	}

	// Last 7 calendar days, zeroes included.
	sevenDaysAgo := now.UTC().AddDate(0, 0, -6).Truncate(24 * time.Hour)
	for i := 6; i >= 0; i-- {
		day := now.UTC().AddDate(0, 0, -i).Format("2006-01-02")
		analytics.DailyActivity[day] = 0
	}
	dailyPipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"created_at": bson.M{"$gte": sevenDaysAgo}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format": "%Y-%m-%d",
				"date":   "$created_at",
			}},
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := coll.Aggregate(ctx, dailyPipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily activity: %w", err)
	}
	defer cursor.Close(ctx)
	for cursor.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int    `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode daily activity: %w", err)
		}
		if _, ok := analytics.DailyActivity[row.ID]; ok {
			analytics.DailyActivity[row.ID] = row.Count
		}
	}

	if total > 0 {
		avgCursor, err := coll.Aggregate(ctx, mongo.Pipeline{
			{{Key: "$group", Value: bson.M{
				"_id": nil,
				"avg": bson.M{"$avg": "$confidence"},
			}}},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate confidence: %w", err)
		}
		defer avgCursor.Close(ctx)
		if avgCursor.Next(ctx) {
			var row struct {
				Avg float64 `bson:"avg"`
			}
			if err := avgCursor.Decode(&row); err != nil {
				return nil, fmt.Errorf("failed to decode confidence average: %w", err)
			}
			analytics.AverageConfidence = row.Avg
		}
	}
	return analytics, nil
}

func (m *MongoBackend) aggregateCounts(ctx context.Context, field string, out map[string]int) error {
	cursor, err := m.db.Collection(analysesCollection).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   field,
			"count": bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return fmt.Errorf("failed to aggregate %s: %w", field, err)
	}
	defer cursor.Close(ctx)
	for cursor.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int    `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return fmt.Errorf("failed to decode aggregation: %w", err)
		}
		out[row.ID] = row.Count
	}
	return cursor.Err()
}

func (m *MongoBackend) DeleteAnalysis(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	result, err := m.db.Collection(analysesCollection).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("failed to delete analysis: %w", err)
	}
	return result.DeletedCount > 0, nil
}

func (m *MongoBackend) UpdateAnalysis(ctx context.Context, id string, update AnalysisUpdate) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	set := bson.M{"updated_at": time.Now()}
	if update.Filename != nil {
		set["filename"] = *update.Filename
	}
	if update.Vibe != nil {
		set["vibe"] = *update.Vibe
	}
	if update.MoodCategory != nil {
		set["mood_category"] = *update.MoodCategory
	}
	if update.Playlist != nil {
		set["playlist"] = update.Playlist
	}
	if update.IsFavorite != nil {
		set["is_favorite"] = *update.IsFavorite
	}

	result, err := m.db.Collection(analysesCollection).UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to update analysis: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (m *MongoBackend) ToggleFavorite(ctx context.Context, id string) (bool, bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, false, nil
	}

	// Aggregation-pipeline update flips the flag atomically.
	pipeline := bson.A{bson.M{"$set": bson.M{
		"is_favorite": bson.M{"$not": "$is_favorite"},
		"updated_at":  time.Now(),
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoAnalysis
	err = m.db.Collection(analysesCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": oid}, pipeline, opts).
		Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	return doc.IsFavorite, true, nil
}

func (m *MongoBackend) IncrementViewCount(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	result, err := m.db.Collection(analysesCollection).UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$inc": bson.M{"view_count": 1},
		"$set": bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return false, fmt.Errorf("failed to increment view count: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (m *MongoBackend) SaveUser(ctx context.Context, user *model.UserRecord) (string, error) {
	now := time.Now()
	doc := mongoUser{
		Email:         user.Email,
		Username:      user.Username,
		Preferences:   string(user.Preferences),
		MoodQuizData:  string(user.MoodQuizData),
		TotalAnalyses: user.TotalAnalyses,
		LastActive:    now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	result, err := m.db.Collection(usersCollection).InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to insert user: %w", err)
	}
	return result.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (m *MongoBackend) GetUser(ctx context.Context, id string) (*model.UserRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var doc mongoUser
	err = m.db.Collection(usersCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return fromMongoUser(&doc), nil
}

func (m *MongoBackend) GetUserByEmail(ctx context.Context, email string) (*model.UserRecord, error) {
	var doc mongoUser
	err := m.db.Collection(usersCollection).FindOne(ctx, bson.M{
		"email": primitive.Regex{Pattern: "^" + regexEscape(email) + "$", Options: "i"},
	}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return fromMongoUser(&doc), nil
}

func (m *MongoBackend) UpdateUser(ctx context.Context, id string, update UserUpdate) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	now := time.Now()
	set := bson.M{"last_active": now, "updated_at": now}
	if update.Email != nil {
		set["email"] = *update.Email
	}
	if update.Username != nil {
		set["username"] = *update.Username
	}
	if update.Preferences != nil {
		set["preferences"] = string(update.Preferences)
	}
	if update.MoodQuizData != nil {
		set["mood_quiz_data"] = string(update.MoodQuizData)
	}
	if update.TotalAnalyses != nil {
		set["total_analyses"] = *update.TotalAnalyses
	}

	result, err := m.db.Collection(usersCollection).UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to update user: %w", err)
	}
	return result.MatchedCount > 0, nil
}

func (m *MongoBackend) GetHealth(ctx context.Context) *Health {
	health := &Health{Type: "mongodb"}
	if m.client == nil {
		health.Status = "error"
		health.Error = "not connected"
		return health
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := m.client.Ping(pingCtx, readpref.Primary()); err != nil {
		health.Status = "error"
		health.Error = err.Error()
		return health
	}
	health.Status = "healthy"

	coll := m.db.Collection(analysesCollection)
	if total, err := coll.CountDocuments(ctx, bson.M{}); err == nil {
		health.TotalAnalyses = total
	}
	if users, err := m.db.Collection(usersCollection).CountDocuments(ctx, bson.M{}); err == nil {
		health.TotalUsers = users
	}

	var latest mongoAnalysis
	err := coll.FindOne(ctx, bson.M{}, options.FindOne().
		SetSort(bson.D{{Key: "created_at", Value: -1}})).Decode(&latest)
	if err == nil {
		created := latest.CreatedAt
		health.LastAnalysis = &created
	}

	var stats bson.M
	if err := m.db.RunCommand(ctx, bson.D{{Key: "dbStats", Value: 1}}).Decode(&stats); err == nil {
		health.Stats = map[string]interface{}{
			"dataSize":    stats["dataSize"],
			"storageSize": stats["storageSize"],
			"collections": stats["collections"],
		}
	}
	return health
}

func regexEscape(s string) string {
	special := `\.+*?()|[]{}^$`
	var out []rune
	for _, r := range s {
		for _, sp := range special {
			if r == sp {
				out = append(out, '\\')
				break
			}
		}
		out = append(out, r)
	}
	return string(out)
}

func decodeAnalyses(ctx context.Context, cursor *mongo.Cursor) ([]*model.AnalysisRecord, error) {
	records := make([]*model.AnalysisRecord, 0)
	for cursor.Next(ctx) {
		var doc mongoAnalysis
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode analysis: %w", err)
		}
		records = append(records, fromMongoAnalysis(&doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analyses: %w", err)
	}
	return records, nil
}

func fromMongoAnalysis(doc *mongoAnalysis) *model.AnalysisRecord {
	record := &model.AnalysisRecord{
		ID:              doc.ID.Hex(),
		Filename:        doc.Filename,
		DominantEmotion: doc.DominantEmotion,
		Confidence:      doc.Confidence,
		Vibe:            doc.Vibe,
		MoodCategory:    doc.MoodCategory,
		Playlist:        doc.Playlist,
		UserID:          doc.UserID,
		IsFavorite:      doc.IsFavorite,
		ViewCount:       doc.ViewCount,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}
	if doc.ColorAnalysis != "" {
		record.ColorAnalysis = json.RawMessage(doc.ColorAnalysis)
	}
	if doc.Preferences != "" {
		record.Preferences = json.RawMessage(doc.Preferences)
	}
	if doc.MoodQuizData != "" {
		record.MoodQuizData = json.RawMessage(doc.MoodQuizData)
	}
	return record
}

func fromMongoUser(doc *mongoUser) *model.UserRecord {
	user := &model.UserRecord{
		ID:            doc.ID.Hex(),
		Email:         doc.Email,
		Username:      doc.Username,
		TotalAnalyses: doc.TotalAnalyses,
		LastActive:    doc.LastActive,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
	if doc.Preferences != "" {
		user.Preferences = json.RawMessage(doc.Preferences)
	}
	if doc.MoodQuizData != "" {
		user.MoodQuizData = json.RawMessage(doc.MoodQuizData)
	}
	return user
}
