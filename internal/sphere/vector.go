package sphere

import "github.com/golang/geo/r3"

// Vector：三分量向量，仅做算术，不携带球面语义
// 背景：底层运算复用 r3.Vector，避免手写叉积与模长时的分量顺序错误
type Vector r3.Vector

// VectorOf：取点的笛卡尔分量
func VectorOf(p Point) Vector { return Vector{X: p.x, Y: p.y, Z: p.z} }

func (v Vector) Subtract(o Vector) Vector { return Vector(r3.Vector(v).Sub(r3.Vector(o))) }

func (v Vector) Dot(o Vector) float64 { return r3.Vector(v).Dot(r3.Vector(o)) }

// Cross：v × o
func (v Vector) Cross(o Vector) Vector { return Vector(r3.Vector(v).Cross(r3.Vector(o))) }

func (v Vector) Magnitude() float64 { return r3.Vector(v).Norm() }

func (v Vector) Scale(k float64) Vector { return Vector(r3.Vector(v).Mul(k)) }

// Normalize：单位化；零向量原样返回零向量
func (v Vector) Normalize() Vector { return Vector(r3.Vector(v).Normalize()) }

// IsFinite：三个分量均为有限数
func (v Vector) IsFinite() bool { return finite(v.X) && finite(v.Y) && finite(v.Z) }
